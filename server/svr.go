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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/server/api"
	"github.com/zintix-labs/luckywheel/server/app"
	"github.com/zintix-labs/luckywheel/server/netsvr"
	"github.com/zintix-labs/luckywheel/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口。
//
// 它負責：
//  1. 驗證 SvrCfg（包含 wheel 與 logger）。
//  2. 建立 HTTP server（netsvr），註冊路由與 middleware。
//  3. 阻塞直到 SIGINT/SIGTERM，之後依序：停止 HTTP → onStop hooks（後註冊先執行）。
//
// onStop 通常是 store.Close、wheel.Close 與 async log 的 drain；
// 呼叫端依「先建立的最後關閉」順序傳入。
func Run(sCfg *svrcfg.SvrCfg, onStop ...func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, sCfg, nil, onStop...)
}

// RunContext 與 Run 相同，但以 ctx 取消代替 OS 信號。
// svr 為 nil 時依 sCfg.Addr 建立預設的 ChiAdapter。
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, onStop ...func() error) error {
	if sCfg == nil {
		return errs.NewFatal("nil server config")
	}
	if err := sCfg.Validate(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		svr = netsvr.NewChiServer(sCfg.Addr)
	} else if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("server is not ready")
	}

	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return err
	}

	a := app.NewWith(svr)
	for _, fn := range onStop {
		a.OnStop(fn)
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("listening", slog.String("addr", s.Address()), slog.String("wheel", sCfg.Wheel.Setting().Name))
	}
	err := a.RunContext(ctx)
	if err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	return err
}
