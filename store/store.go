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

// Package store 定義每個玩家 identity 的轉盤狀態儲存。
//
// 併發合約：
//   - 單一 key 的更新必須與「決定資格的那次讀取」原子化。
//     本包以 CompareAndSet 表達：只有在目前狀態等於 expected 時才寫入 next。
//   - 不同 key 之間不可互相競爭同一把鎖。
//
// 實作：
//   - Memory  ：行程內 map，每個 key 一把鎖（測試與單機部署）。
//   - Redis   ：WATCH + MULTI/EXEC。
//   - Postgres：條件式 INSERT / UPDATE。
//   - SQLite  ：同 Postgres，單機持久化。
package store

import "context"

// State 是單一 identity 的轉盤狀態。
//
// 零值 {0,0} 代表「從未轉過」。狀態在每次成功的 spin 後被寫入一次，永不刪除。
type State struct {
	LastSpinAt   int64 `json:"last_spin_at"`   // ms epoch，0 表示從未轉過
	NonBigStreak int   `json:"non_big_streak"` // 自上次大獎以來連續未中大獎的次數
}

// IsZero 回報是否為「從未轉過」的預設狀態。
func (s State) IsZero() bool {
	return s == State{}
}

// Store 是轉盤狀態的儲存介面。
type Store interface {
	// Get 讀取 key 的狀態；不存在時回傳零值狀態與 nil error。
	Get(ctx context.Context, key string) (State, error)
	// CompareAndSet 只在目前狀態等於 expected 時寫入 next。
	// 回傳 false, nil 代表狀態已被其他請求更新，呼叫端應重新讀取。
	CompareAndSet(ctx context.Context, key string, expected, next State) (bool, error)
	// Close 釋放底層連線。
	Close() error
}
