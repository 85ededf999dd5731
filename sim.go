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

package luckywheel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/recorder"
	"github.com/zintix-labs/luckywheel/stats"
	"golang.org/x/sync/errgroup"
)

// SimEpoch 是模擬器虛擬時鐘的預設起點
var SimEpoch = time.UnixMilli(1_700_000_000_000)

// SimConfig 模擬參數
type SimConfig struct {
	Players        int       // 玩家數（每位玩家一個 identity）
	SpinsPerPlayer int       // 每位玩家成功 spin 的次數
	Workers        int       // 併發 worker 數（預設 1）
	Start          time.Time // 虛擬時鐘起點（零值使用 SimEpoch）
	Probe          bool      // 每次成功後在冷卻中途再試一次，驗證冷卻會擋下
	Progress       io.Writer // 非 nil 時輸出進度條
}

// Simulator 以虛擬時鐘驅動 Wheel.Spin，統計獎項分佈與保底行為。
//
// 每位玩家依序在 Start + k*window 轉第 k 次（window 為 0 時每次推進 1ms），
// 所以每一次都剛好落在冷卻邊界上，應該全部成功。
type Simulator struct {
	w *Wheel
}

func NewSimulator(w *Wheel) (*Simulator, error) {
	if w == nil {
		return nil, errs.NewFatal("wheel required")
	}
	return &Simulator{w: w}, nil
}

// Run 執行模擬並回傳統計報告與耗時。
func (s *Simulator) Run(ctx context.Context, cfg SimConfig) (*stats.StatReport, time.Duration, error) {
	if cfg.Players < 1 || cfg.SpinsPerPlayer < 1 {
		return nil, 0, errs.NewWarn(fmt.Sprintf("players and spins must >= 1, got %d/%d", cfg.Players, cfg.SpinsPerPlayer))
	}
	workers := max(1, min(cfg.Workers, cfg.Players))
	start := cfg.Start
	if start.IsZero() {
		start = SimEpoch
	}
	step := s.w.Window()
	if step <= 0 {
		step = time.Millisecond
	}

	expected := make([]float64, len(s.w.Prizes()))
	for i := range expected {
		expected[i] = s.w.Chance(i)
	}
	recs := make([]*recorder.SpinRecorder, workers)
	for i := range recs {
		r, err := recorder.NewSpinRecorder(s.w.Setting(), expected)
		if err != nil {
			return nil, 0, err
		}
		recs[i] = r
	}

	var bar *pb.ProgressBar
	if cfg.Progress != nil {
		bar = pb.New(cfg.Players * cfg.SpinsPerPlayer)
		bar.SetWriter(cfg.Progress)
		bar.Start()
	}

	jobs := make(chan int, workers)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for p := 0; p < cfg.Players; p++ {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- p:
			}
		}
		return nil
	})

	begin := time.Now()
	for i := 0; i < workers; i++ {
		rec := recs[i]
		g.Go(func() error {
			for p := range jobs {
				if err := s.player(gctx, rec, p, cfg, start, step, bar); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	used := time.Since(begin)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, used, err
	}

	merged, err := recorder.MergeSpinRecorder(recs)
	if err != nil {
		return nil, used, err
	}
	return merged.Report(cfg.Players), used, nil
}

func (s *Simulator) player(ctx context.Context, rec *recorder.SpinRecorder, p int, cfg SimConfig, start time.Time, step time.Duration, bar *pb.ProgressBar) error {
	key := fmt.Sprintf("sim:%d", p)
	window := s.w.Window()
	for k := 0; k < cfg.SpinsPerPlayer; k++ {
		now := start.Add(time.Duration(k) * step)
		res, err := s.w.Spin(ctx, key, now)
		if err != nil {
			return errs.WrapWithExtra(err, "sim spin failed", key)
		}
		rec.Record(recorder.Outcome{PrizeIndex: res.PrizeIndex, Forced: res.Forced, Streak: res.Streak})

		if cfg.Probe && window > time.Millisecond {
			_, err := s.w.Spin(ctx, key, now.Add(window/2))
			if _, ok := AsCooldown(err); !ok {
				return errs.NewFatal(fmt.Sprintf("cooldown not enforced for %s at spin %d: %v", key, k, err))
			}
			rec.RecordDenied()
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}
