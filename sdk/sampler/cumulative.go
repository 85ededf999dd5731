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

// Package sampler 提供轉盤使用的加權抽樣原語。
//
// 本檔案 (cumulative.go) 實作累積權重反函數抽樣 (inverse-CDF)。
//
// 演算法原理：
//   - 建表時計算前綴和 prefix[i] = w0 + ... + wi，total = prefix[n-1]。
//   - 抽樣時取 x ∈ [0,total)，回傳第一個 prefix[i] > x 的索引。
//
// 特性：
//   - 建表時間：O(N)；抽樣時間：O(log N)，每次只消耗一個 Float64。
//   - 權重不需要正規化，可為任意非負實數。
//   - 權重為 0 的項目永遠不會被選中。
//
// 邊界處理：
//   - x 由 Float64()*total 取得，浮點捨入可能讓 x 等於 total；
//     此時回退到「最後一個正權重項目」，保證最後一格永遠可達。
package sampler

import (
	"fmt"
	"math"
	"sort"

	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
)

// Cumulative 是建好的累積權重表，建表後唯讀，可被多個 goroutine 共用。
type Cumulative struct {
	prefix []float64
	total  float64
	last   int // 最後一個正權重的索引
}

// BuildCumulative 根據權重建立 Cumulative。
//
// 錯誤（errs.Fatal，屬於設定錯誤，應在載入期攔下）：
//   - 權重列表為空
//   - 任一權重為負數、NaN 或 Inf
//   - 權重總和為 0 或溢位為 Inf
func BuildCumulative[T Numbers](weights []T) (*Cumulative, error) {
	if len(weights) == 0 {
		return nil, errs.NewFatal("sampler: empty weights")
	}
	c := &Cumulative{
		prefix: make([]float64, len(weights)),
		last:   -1,
	}
	acc := 0.0
	for i, w := range weights {
		f := float64(w)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, errs.NewFatal(fmt.Sprintf("sampler: invalid weight %v at index %d", f, i))
		}
		acc += f
		c.prefix[i] = acc
		if f > 0 {
			c.last = i
		}
	}
	if math.IsInf(acc, 0) {
		return nil, errs.NewFatal("sampler: total weight overflow")
	}
	if acc <= 0 {
		return nil, errs.NewFatal("sampler: all weights are zero")
	}
	c.total = acc
	return c, nil
}

// Pick 抽出一個索引。
func (c *Cumulative) Pick(r core.RAND) int {
	x := r.Float64() * c.total
	i := sort.Search(len(c.prefix), func(i int) bool { return c.prefix[i] > x })
	if i >= len(c.prefix) {
		return c.last
	}
	return i
}

// Len 回傳項目數量（含零權重項目）。
func (c *Cumulative) Len() int { return len(c.prefix) }

// Total 回傳權重總和。
func (c *Cumulative) Total() float64 { return c.total }

// Prob 回傳索引 i 的正規化機率；越界回傳 0。
func (c *Cumulative) Prob(i int) float64 {
	if i < 0 || i >= len(c.prefix) {
		return 0
	}
	w := c.prefix[i]
	if i > 0 {
		w -= c.prefix[i-1]
	}
	return w / c.total
}

// Draw 是一次性的便利函數：建表後立即抽一次。
// 熱路徑請先 BuildCumulative 再重複呼叫 Pick。
func Draw[T Numbers](r core.RAND, weights []T) (int, error) {
	c, err := BuildCumulative(weights)
	if err != nil {
		return -1, err
	}
	return c.Pick(r), nil
}
