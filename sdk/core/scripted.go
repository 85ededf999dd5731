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

package core

import (
	"encoding/binary"
	"math"

	"github.com/zintix-labs/luckywheel/errs"
)

// Scripted 依序回放預先給定的 [0,1) 值，用完後從頭循環。
//
// 用途：讓抽樣、保底與重播測試可以精準指定「下一次抽到哪一格」。
// 所有方法都由 Float64 推導，因此同一份腳本在不同取樣 API 下意義一致。
type Scripted struct {
	vals []float64
	pos  int
}

// NewScripted 建立腳本化亂數來源；超出 [0,1) 的值會被夾到合法範圍，空腳本視為 {0}。
func NewScripted(vals ...float64) *Scripted {
	s := &Scripted{vals: make([]float64, 0, max(1, len(vals)))}
	for _, v := range vals {
		switch {
		case math.IsNaN(v) || v < 0:
			v = 0
		case v >= 1:
			v = math.Nextafter(1, 0)
		}
		s.vals = append(s.vals, v)
	}
	if len(s.vals) == 0 {
		s.vals = append(s.vals, 0)
	}
	return s
}

func (s *Scripted) Float64() float64 {
	v := s.vals[s.pos]
	s.pos = (s.pos + 1) % len(s.vals)
	return v
}

func (s *Scripted) Uint64() uint64 {
	return uint64(s.Float64() * (1 << 63) * 2)
}

func (s *Scripted) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return min(uint(s.Float64()*float64(n)), n-1)
}

func (s *Scripted) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return min(int(s.Float64()*float64(n)), n-1)
}

// Snapshot 只保存讀取位置；腳本內容視為建構參數。
func (s *Scripted) Snapshot() ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(s.pos))
	return b, nil
}

func (s *Scripted) Restore(b []byte) error {
	if len(b) != 8 {
		return errs.NewWarn("scripted: snapshot must be 8 bytes")
	}
	s.pos = int(binary.BigEndian.Uint64(b) % uint64(len(s.vals)))
	return nil
}

// ScriptedFactory 讓每個 New 都拿到同一份腳本的獨立副本（seed 被忽略）。
type ScriptedFactory struct {
	Vals []float64
}

func (f ScriptedFactory) New(int64) PRNG {
	return NewScripted(f.Vals...)
}
