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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/server/identity"
	"github.com/zintix-labs/luckywheel/server/logger"
)

const (
	DefaultSpinTimeout = 3 * time.Second
	MaxSpinTimeout     = 30 * time.Second
)

type SvrCfg struct {
	Log   *slog.Logger
	Wheel *luckywheel.Wheel

	// Addr 監聽位址，空字串使用 netsvr.DefaultAddr
	Addr string
	// CORSOrigins 允許的前端來源；空則不啟用 CORS
	CORSOrigins []string
	// SpinTimeout 單次 spin（含 store 往返）的上限
	SpinTimeout time.Duration
	// IdentityHeaders 依序檢查的識別 header；空則用 X-Device-Id、X-Session-Id
	IdentityHeaders []string
	// Resolver 非 nil 時優先於 IdentityHeaders
	Resolver identity.Resolver
	// Clock 伺服器時鐘，測試可注入
	Clock func() time.Time
}

// Validate 補齊預設值並檢查必要依賴
func (sc *SvrCfg) Validate() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Wheel == nil {
		return errs.NewFatal("wheel is required")
	}
	if sc.SpinTimeout <= 0 {
		sc.SpinTimeout = DefaultSpinTimeout
	}
	sc.SpinTimeout = min(sc.SpinTimeout, MaxSpinTimeout)
	if sc.Resolver == nil {
		sc.Resolver = identity.NewHeaderResolver(sc.IdentityHeaders...)
	}
	if sc.Clock == nil {
		sc.Clock = time.Now
	}
	return nil
}
