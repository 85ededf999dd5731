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

// PityDecision 是保底控制器對「這一次抽獎」的約束
type PityDecision uint8

const (
	// NoConstraint 依完整獎項表抽
	NoConstraint PityDecision = iota
	// ForceBig 只在大獎子集合中抽
	ForceBig
)

func (d PityDecision) String() string {
	switch d {
	case ForceBig:
		return "force_big"
	default:
		return "none"
	}
}

// DecidePity 在連續未中大獎 nonBigStreak 次之後，決定下一抽是否強制大獎。
//
// 保證：任意連續 bigWinEvery 次成功的 spin 中至少一次是大獎。
// 因此當 streak 已達 bigWinEvery-1，下一抽就必須是大獎。
// bigWinEvery == 1 表示每一抽都強制大獎。
func DecidePity(nonBigStreak, bigWinEvery int) PityDecision {
	if bigWinEvery <= 1 || nonBigStreak >= bigWinEvery-1 {
		return ForceBig
	}
	return NoConstraint
}

// nextStreak 依本次結果推進連續未中大獎次數
func nextStreak(streak int, isBig bool) int {
	if isBig {
		return 0
	}
	if streak < 0 {
		streak = 0
	}
	return streak + 1
}
