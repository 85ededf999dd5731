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

// Package luckywheel 是幸運轉盤的抽獎引擎。
//
// 一次 Spin 依序經過：
//  1. 讀取 identity 的狀態（store.Store）
//  2. 冷卻檢查（CheckCooldown），未通過回傳 *CooldownError，不動狀態
//  3. 保底判斷（DecidePity），決定用完整獎項表或只用大獎子集合
//  4. 加權抽獎（sampler.Cumulative）
//  5. 以 CompareAndSet 寫回新狀態；被其他請求搶先時重新讀取再判斷
//
// 同一個 identity 的併發請求最多只有一個成功，其餘在重新讀取後被冷卻擋下。
// Wheel 本身可被多個 goroutine 共用。
package luckywheel

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/sdk/sampler"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/store"
)

// DefaultMaxRetries 是 CompareAndSet 衝突時重新讀取的次數上限
const DefaultMaxRetries = 8

type options struct {
	poolSize   int
	seed       int64
	hasSeed    bool
	maxRetries int
	log        *slog.Logger
}

// Option 調整 Wheel 的建構參數
type Option func(*options)

// WithPoolSize 設定亂數核心數量（預設 1，至少 1）
func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

// WithSeed 固定初始種子，讓抽獎序列可重現；未設定時取 crypto/rand。
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithMaxRetries 設定 CAS 衝突的重試上限
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithLogger 設定 Wheel 使用的 logger（預設 slog.Default）
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Wheel 是組裝好的抽獎引擎：獎項表 + 保底 + 冷卻 + 狀態儲存 + 亂數核心池。
type Wheel struct {
	setting    *spec.SpinSetting
	full       *sampler.Cumulative
	big        *sampler.Cumulative
	bigIdx     []int
	st         store.Store
	cores      *corePool
	seed       int64
	maxRetries int
	log        *slog.Logger
}

// New 建立 Wheel。setting 會再經過一次 Validate，任何設定錯誤皆為 errs.Fatal。
func New(cf core.PRNGFactory, setting *spec.SpinSetting, st store.Store, opts ...Option) (*Wheel, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if st == nil {
		return nil, errs.NewFatal("store required")
	}
	if err := setting.Validate(); err != nil {
		return nil, err
	}

	o := options{poolSize: 1, maxRetries: DefaultMaxRetries, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasSeed {
		seed, err := core.RandomSeed()
		if err != nil {
			return nil, errs.Wrap(err, "random seed failed")
		}
		o.seed = seed
	}
	if o.maxRetries < 0 {
		o.maxRetries = 0
	}
	if o.log == nil {
		o.log = slog.Default()
	}

	full, err := sampler.BuildCumulative(setting.Weights())
	if err != nil {
		return nil, errs.Wrap(err, "build prize sampler failed")
	}
	bigIdx := setting.BigIndices()
	bigWeights := make([]float64, len(bigIdx))
	for i, idx := range bigIdx {
		bigWeights[i] = setting.Prizes[idx].Weight
	}
	big, err := sampler.BuildCumulative(bigWeights)
	if err != nil {
		return nil, errs.Wrap(err, "build big prize sampler failed")
	}

	cores, err := newCorePool(o.poolSize, cf, o.seed)
	if err != nil {
		return nil, err
	}

	return &Wheel{
		setting:    setting,
		full:       full,
		big:        big,
		bigIdx:     bigIdx,
		st:         st,
		cores:      cores,
		seed:       o.seed,
		maxRetries: o.maxRetries,
		log:        o.log,
	}, nil
}

func (w *Wheel) Setting() *spec.SpinSetting { return w.setting }

func (w *Wheel) Prizes() []spec.Prize { return w.setting.Prizes }

func (w *Wheel) Window() time.Duration { return w.setting.Window() }

func (w *Wheel) BigWinEvery() int { return w.setting.BigWinEvery }

// Seed 回傳初始種子（重現用）
func (w *Wheel) Seed() int64 { return w.seed }

// Chance 回傳獎項 i 在不受保底約束時的機率 weight_i / total
func (w *Wheel) Chance(i int) float64 { return w.full.Prob(i) }

// BigChance 回傳不受保底約束時抽中任一大獎的機率
func (w *Wheel) BigChance() float64 {
	p := 0.0
	for _, i := range w.bigIdx {
		p += w.full.Prob(i)
	}
	return p
}

func (w *Wheel) Metrics() PoolMetrics { return w.cores.metrics() }

// Close 停止借出亂數核心；不關閉 store（由建立 store 的一方負責）。
func (w *Wheel) Close() {
	w.cores.close()
}
