// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	v1 "github.com/zintix-labs/luckywheel/server/api/v1"
	"github.com/zintix-labs/luckywheel/server/netsvr"
	"github.com/zintix-labs/luckywheel/server/netsvr/middleware"
	"github.com/zintix-labs/luckywheel/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與路由。sCfg 必須已通過 Validate。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	svr.Get("/healthz", v1.Healthz)
	return registerSpin(svr, sCfg) // 2. spin 與 v1
}

// 註冊 middleware，順序即外到內
func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORSOrigins, sCfg.IdentityHeaders...))
	svr.Use(middleware.Compression)
}

func registerSpin(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	s, err := v1.NewSpinHandler(sCfg)
	if err != nil {
		return err
	}
	// 無版本前綴的 /spin 給既有前端使用
	svr.Post("/spin", s.Spin)
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/spin", s.Spin)
		vOne.Get("/prizes", v1.Prizes(sCfg.Wheel))
	})
	return nil
}
