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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/server"
	"github.com/zintix-labs/luckywheel/server/logger"
	"github.com/zintix-labs/luckywheel/server/svrcfg"
)

const startupTimeout = 10 * time.Second

// 轉盤 API 服務入口。
// 參數優先序：flag > 環境變數 > .env > 預設值。
func main() {
	// .env 不存在是正常情況；已設定的環境變數不會被覆蓋
	_ = godotenv.Load()

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	mode, err := logger.ParseMode(cfg.logMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	log, ah := logger.NewAsync(4096, mode)
	slog.SetDefault(log)

	ss, err := cfg.loadSetting()
	if err != nil {
		ah.Close()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	st, err := cfg.openStore(ctx)
	if err != nil {
		ah.Close()
		return err
	}

	opts := []luckywheel.Option{
		luckywheel.WithPoolSize(cfg.rngPool),
		luckywheel.WithLogger(log),
	}
	if cfg.seed >= 1 {
		opts = append(opts, luckywheel.WithSeed(cfg.seed))
	}
	w, err := luckywheel.New(core.Default(), ss, st, opts...)
	if err != nil {
		_ = st.Close()
		ah.Close()
		return err
	}
	log.Info("wheel ready",
		slog.String("name", ss.Name),
		slog.String("store", cfg.store),
		slog.Int("big_win_every", ss.BigWinEvery),
		slog.Duration("cooldown", ss.Window()),
		slog.Int64("seed", w.Seed()),
	)

	sCfg := &svrcfg.SvrCfg{
		Log:             log,
		Wheel:           w,
		Addr:            cfg.addr,
		CORSOrigins:     cfg.corsOrigins,
		SpinTimeout:     cfg.spinTimeout,
		IdentityHeaders: cfg.identityHeaders,
	}
	// 後註冊先執行：wheel → store → log
	return server.Run(sCfg,
		func() error { ah.Close(); return nil },
		st.Close,
		func() error { w.Close(); return nil },
	)
}
