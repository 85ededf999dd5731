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

package spec

import (
	"fmt"
	"math"
	"time"

	"github.com/zintix-labs/luckywheel/errs"
)

const (
	// DefaultCooldown 未設定 cooldown 時的冷卻時間
	DefaultCooldown = 24 * time.Hour
	// PityDisabled 作為 BigWinEvery 時等同關閉保底（僅供模擬與分佈測試）
	PityDisabled = math.MaxInt
)

// SpinSetting 是轉盤的完整設定：獎項表 + 保底上限 + 冷卻時間。
//
// Prizes 的順序沒有語意，但必須穩定：索引即為獎項 id，測試與統計都依賴它。
type SpinSetting struct {
	Name        string  `yaml:"name"          json:"name"`
	BigWinEvery int     `yaml:"big_win_every" json:"big_win_every"`
	Cooldown    string  `yaml:"cooldown"      json:"cooldown"`
	Prizes      []Prize `yaml:"prizes"        json:"prizes"`

	window time.Duration
}

// Validate 解析冷卻時間並檢查設定，任何錯誤皆為 errs.Fatal（啟動期中止）。
//
// 檢查項目：
//   - prizes 不可為空
//   - 每個 weight 必須是有限且 >= 0 的數，且至少一個 > 0
//   - 至少一個 is_big 且 weight > 0 的獎項（否則保底無法兌現）
//   - big_win_every >= 1
//   - cooldown 可解析且 >= 0（空字串視為 DefaultCooldown）
func (s *SpinSetting) Validate() error {
	if s == nil {
		return errs.NewFatal("nil spin setting")
	}
	window := DefaultCooldown
	if s.Cooldown != "" {
		d, err := time.ParseDuration(s.Cooldown)
		if err != nil {
			return errs.WrapWithExtra(err, "invalid cooldown", s.Name)
		}
		window = d
	}
	if window < 0 {
		return errs.NewWithExtra(errs.Fatal, "cooldown must >= 0", s.Name)
	}

	if len(s.Prizes) == 0 {
		return errs.NewWithExtra(errs.Fatal, "empty prizes", s.Name)
	}
	if s.BigWinEvery < 1 {
		return errs.NewWithExtra(errs.Fatal, fmt.Sprintf("big_win_every must >= 1, got %d", s.BigWinEvery), s.Name)
	}

	total := 0.0
	bigTotal := 0.0
	for i, p := range s.Prizes {
		w := p.Weight
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return errs.NewWithExtra(errs.Fatal, fmt.Sprintf("invalid weight %v at prize %d (%s)", w, i, p.Label), s.Name)
		}
		total += w
		if p.IsBig {
			bigTotal += w
		}
	}
	if total <= 0 {
		return errs.NewWithExtra(errs.Fatal, "all prize weights are zero", s.Name)
	}
	if bigTotal <= 0 {
		return errs.NewWithExtra(errs.Fatal, "no big prize with positive weight", s.Name)
	}

	s.window = window
	return nil
}

// Window 回傳解析後的冷卻時間；需先通過 Validate。
func (s *SpinSetting) Window() time.Duration {
	return s.window
}

// Weights 依 Prizes 順序回傳權重
func (s *SpinSetting) Weights() []float64 {
	ws := make([]float64, len(s.Prizes))
	for i, p := range s.Prizes {
		ws[i] = p.Weight
	}
	return ws
}

// BigIndices 回傳所有大獎在 Prizes 中的索引（依原順序）
func (s *SpinSetting) BigIndices() []int {
	idx := make([]int, 0, len(s.Prizes))
	for i, p := range s.Prizes {
		if p.IsBig {
			idx = append(idx, i)
		}
	}
	return idx
}
