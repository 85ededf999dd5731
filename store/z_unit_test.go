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
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// checkContract 對任一 Store 實作跑同一組 CAS 合約。
func checkContract(t *testing.T, s Store, prefix string) {
	t.Helper()
	ctx := context.Background()
	key := prefix + "alice"
	other := prefix + "bob"

	st, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !st.IsZero() {
		t.Fatalf("expected zero state for unknown key, got %+v", st)
	}

	first := State{LastSpinAt: 1_000, NonBigStreak: 1}
	ok, err := s.CompareAndSet(ctx, key, State{}, first)
	if err != nil || !ok {
		t.Fatalf("first cas: ok=%v err=%v", ok, err)
	}
	// 同一個 expected 再寫一次必須失敗
	ok, err = s.CompareAndSet(ctx, key, State{}, State{LastSpinAt: 2_000})
	if err != nil || ok {
		t.Fatalf("stale zero cas: ok=%v err=%v", ok, err)
	}
	ok, err = s.CompareAndSet(ctx, key, State{LastSpinAt: 999, NonBigStreak: 1}, State{LastSpinAt: 2_000})
	if err != nil || ok {
		t.Fatalf("stale cas: ok=%v err=%v", ok, err)
	}
	if st, _ = s.Get(ctx, key); st != first {
		t.Fatalf("state changed by failed cas: %+v", st)
	}

	second := State{LastSpinAt: 2_000, NonBigStreak: 0}
	ok, err = s.CompareAndSet(ctx, key, first, second)
	if err != nil || !ok {
		t.Fatalf("second cas: ok=%v err=%v", ok, err)
	}
	if st, _ = s.Get(ctx, key); st != second {
		t.Fatalf("unexpected state after second cas: %+v", st)
	}

	// 不同 key 互不影響
	if st, _ = s.Get(ctx, other); !st.IsZero() {
		t.Fatalf("other key polluted: %+v", st)
	}
}

// checkSingleWinner 多個 goroutine 以同一個 expected 競爭，只能有一個成功。
func checkSingleWinner(t *testing.T, s Store, key string, n int) {
	t.Helper()
	ctx := context.Background()
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := s.CompareAndSet(ctx, key, State{}, State{LastSpinAt: int64(i + 1)})
			if err != nil {
				t.Errorf("cas err: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one winner, got %d", got)
	}
}

func TestMemoryContract(t *testing.T) {
	m := NewMemory()
	checkContract(t, m, "")
	// bob 只被讀取，不應建立 entry
	if m.Len() != 1 {
		t.Fatalf("unexpected entry count: %d", m.Len())
	}
}

func TestMemorySingleWinner(t *testing.T) {
	checkSingleWinner(t, NewMemory(), "hot", 64)
}

func TestMemoryHonorsContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Get(ctx, "k"); err == nil {
		t.Fatalf("expected ctx error on get")
	}
	if _, err := m.CompareAndSet(ctx, "k", State{}, State{LastSpinAt: 1}); err == nil {
		t.Fatalf("expected ctx error on cas")
	}
}

func TestSQLiteContract(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	checkContract(t, s, "")
	checkSingleWinner(t, s, "hot", 16)
}

func TestSQLiteFilePersists(t *testing.T) {
	path := t.TempDir() + "/wheel.db"
	ctx := context.Background()
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	want := State{LastSpinAt: 42, NonBigStreak: 3}
	if ok, err := s.CompareAndSet(ctx, "k", State{}, want); err != nil || !ok {
		t.Fatalf("cas: ok=%v err=%v", ok, err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer s.Close()
	if got, _ := s.Get(ctx, "k"); got != want {
		t.Fatalf("state not persisted: %+v", got)
	}
}

func TestStmtsPlaceholders(t *testing.T) {
	pg := newStmts(sq.Dollar)
	sqlStr, args, err := pg.cas("k", State{LastSpinAt: 1, NonBigStreak: 2}, State{LastSpinAt: 3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(sqlStr, "UPDATE spin_state SET") || !strings.Contains(sqlStr, "$5") {
		t.Fatalf("unexpected update sql: %s", sqlStr)
	}
	if len(args) != 5 {
		t.Fatalf("unexpected args: %v", args)
	}

	lite := newStmts(sq.Question)
	sqlStr, args, err = lite.cas("k", State{}, State{LastSpinAt: 3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(sqlStr, "INSERT INTO spin_state") || !strings.HasSuffix(sqlStr, "DO NOTHING") {
		t.Fatalf("unexpected insert sql: %s", sqlStr)
	}
	if strings.Contains(sqlStr, "$") || len(args) != 3 {
		t.Fatalf("unexpected insert sql/args: %s %v", sqlStr, args)
	}
}

// 需要外部服務的測試：未設定環境變數時跳過

func TestRedisContract(t *testing.T) {
	addr := os.Getenv("LW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LW_TEST_REDIS_ADDR not set")
	}
	s, err := DialRedis(context.Background(), addr, "", 0)
	if err != nil {
		t.Fatalf("dial redis: %v", err)
	}
	defer s.Close()
	prefix := fmt.Sprintf("test-%d:", time.Now().UnixNano())
	checkContract(t, s, prefix)
	checkSingleWinner(t, s, prefix+"hot", 16)
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("LW_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LW_TEST_PG_DSN not set")
	}
	s, err := DialPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("dial postgres: %v", err)
	}
	defer s.Close()
	prefix := fmt.Sprintf("test-%d:", time.Now().UnixNano())
	checkContract(t, s, prefix)
	checkSingleWinner(t, s, prefix+"hot", 16)
}
