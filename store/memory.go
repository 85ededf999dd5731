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

package store

import (
	"context"
	"sync"
)

// Memory 是行程內的 Store 實作。
//
// 鎖的粒度：
//   - mu 只保護 entries map 本身（查找與建立 entry）。
//   - 每個 entry 自帶一把鎖，CompareAndSet 只鎖該 key，不同 key 不互相阻塞。
//
// 沒有淘汰機制：identity 越多記憶體越大，正式環境請使用 Redis / Postgres。
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
}

type memEntry struct {
	mu sync.Mutex
	st State
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memEntry)}
}

func (m *Memory) Get(ctx context.Context, key string) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return State{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st, nil
}

func (m *Memory) CompareAndSet(ctx context.Context, key string, expected, next State) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e := m.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st != expected {
		return false, nil
	}
	e.st = next
	return true, nil
}

// Len 回傳目前持有狀態的 identity 數量。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }

// entry 取得或建立 key 對應的 entry（double-checked）。
func (m *Memory) entry(key string) *memEntry {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return e
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.entries[key]; ok {
		return e
	}
	e = &memEntry{}
	m.entries[key] = e
	return e
}
