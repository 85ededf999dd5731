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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/store"
)

// SpinResult 是一次成功 spin 的結果
type SpinResult struct {
	ID         string        // 每次 spin 唯一的識別碼（uuid v4）
	PrizeIndex int           // 獎項在設定中的索引
	Prize      spec.Prize    // 抽中的獎項
	Forced     bool          // 是否由保底強制為大獎
	ServerTime int64         // 伺服器時間（ms epoch），同時也是新的 LastSpinAt
	Cooldown   time.Duration // 冷卻時間
	Streak     int           // 本次之後的連續未中大獎次數
}

// NextAllowedAt 回傳下一次可轉的時間（ms epoch）
func (r SpinResult) NextAllowedAt() int64 {
	return satAdd(r.ServerTime, r.Cooldown.Milliseconds())
}

// CooldownError 表示 identity 仍在冷卻中；狀態未被修改。
type CooldownError struct {
	NextAllowedAt int64 // ms epoch
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, next allowed at %d", e.NextAllowedAt)
}

// RetryAfter 回傳距離 now（ms epoch）還需等待多久
func (e *CooldownError) RetryAfter(now int64) time.Duration {
	if e.NextAllowedAt <= now {
		return 0
	}
	return time.Duration(e.NextAllowedAt-now) * time.Millisecond
}

// AsCooldown 判斷 err 是否為（或包裝了）*CooldownError
func AsCooldown(err error) (*CooldownError, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Spin 為 key 執行一次轉盤。
//
// 回傳：
//   - 成功：SpinResult，狀態已寫入 store。
//   - 冷卻中：*CooldownError，狀態不變。
//   - 其他（store 失敗、ctx 取消、重試用盡）：error，狀態不變。
//
// now 由呼叫端注入（HTTP 層用 time.Now，模擬器用虛擬時鐘）。
func (w *Wheel) Spin(ctx context.Context, key string, now time.Time) (SpinResult, error) {
	nowMs := now.UnixMilli()
	if nowMs <= 0 {
		return SpinResult{}, errs.NewWarn("spin time must be after unix epoch")
	}
	window := w.setting.Window()

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		cur, err := w.st.Get(ctx, key)
		if err != nil {
			return SpinResult{}, errs.WrapWithExtra(err, "read spin state failed", key)
		}

		gate := CheckCooldown(cur, nowMs, window)
		if !gate.Allowed {
			return SpinResult{}, &CooldownError{NextAllowedAt: gate.NextAllowedAt}
		}

		decision := DecidePity(cur.NonBigStreak, w.setting.BigWinEvery)
		idx, err := w.draw(ctx, decision)
		if err != nil {
			return SpinResult{}, err
		}
		prize := w.setting.Prizes[idx]

		next := store.State{
			LastSpinAt:   nowMs,
			NonBigStreak: nextStreak(cur.NonBigStreak, prize.IsBig),
		}
		ok, err := w.st.CompareAndSet(ctx, key, cur, next)
		if err != nil {
			return SpinResult{}, errs.WrapWithExtra(err, "write spin state failed", key)
		}
		if !ok {
			// 其他請求先寫入：丟棄本次抽獎結果，重新讀取後再判斷冷卻
			continue
		}

		return SpinResult{
			ID:         uuid.NewString(),
			PrizeIndex: idx,
			Prize:      prize,
			Forced:     decision == ForceBig,
			ServerTime: nowMs,
			Cooldown:   window,
			Streak:     next.NonBigStreak,
		}, nil
	}

	w.log.Warn("spin.contention", "key", key, "retries", w.maxRetries)
	return SpinResult{}, errs.NewWarn(fmt.Sprintf("spin state contention after %d retries", w.maxRetries))
}

// draw 依保底決策抽出獎項索引（對應 setting.Prizes）
func (w *Wheel) draw(ctx context.Context, d PityDecision) (int, error) {
	return w.cores.with(ctx, func(c *core.Core) int {
		if d == ForceBig {
			return w.bigIdx[w.big.Pick(c)]
		}
		return w.full.Pick(c)
	})
}
