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
	"math"
	"time"

	"github.com/zintix-labs/luckywheel/store"
)

// Gate 是冷卻檢查的結果。Allowed 為 false 時 NextAllowedAt 為下次可轉的時間（ms epoch）。
type Gate struct {
	Allowed       bool
	NextAllowedAt int64
}

// CheckCooldown 判斷 identity 在 now（ms epoch）是否可以轉。
//
//   - 從未轉過（LastSpinAt == 0）一律允許。
//   - now - LastSpinAt >= window 允許（邊界 == window 也允許）。
//   - 否則拒絕，NextAllowedAt = LastSpinAt + window。
//
// 時鐘倒退（now < LastSpinAt）視為仍在冷卻中。純函式，不讀寫任何狀態。
func CheckCooldown(st store.State, now int64, window time.Duration) Gate {
	if st.LastSpinAt == 0 {
		return Gate{Allowed: true}
	}
	w := window.Milliseconds()
	next := satAdd(st.LastSpinAt, w)
	if now >= next {
		return Gate{Allowed: true}
	}
	return Gate{NextAllowedAt: next}
}

func satAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
