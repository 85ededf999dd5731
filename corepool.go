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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
)

// corePool 管理一組亂數核心。PRNG 不是 goroutine-safe：一個核心同一時間只借給一個請求。
//
//   - pool：可借出的核心，借用時尊重 ctx（取消/逾時直接返回）。
//   - 使用期間 panic 的核心狀態不可信，丟棄並以 seedMaker 的下一個種子補一個新的。
//   - Close 之後借用一律失敗，歸還的核心直接丟棄。
type corePool struct {
	cf        core.PRNGFactory
	seedMaker *seedMaker
	pool      chan *core.Core
	done      chan struct{}
	closeOnce sync.Once
	size      int
	inflight  atomic.Int32
	rebuild   atomic.Int32
	panics    atomic.Int32
}

func newCorePool(n int, cf core.PRNGFactory, seed int64) (*corePool, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	n = max(1, n)
	p := &corePool{
		cf:        cf,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *core.Core, n),
		done:      make(chan struct{}),
		size:      n,
	}
	for i := 0; i < n; i++ {
		p.pool <- p.build()
	}
	return p, nil
}

func (p *corePool) build() *core.Core {
	return core.New(p.cf.New(p.seedMaker.next()))
}

// with 借出一個核心執行 fn，結束後歸還；fn panic 時回傳 errs.Fatal 並補一個新核心。
func (p *corePool) with(ctx context.Context, fn func(c *core.Core) int) (out int, err error) {
	var c *core.Core
	select {
	case <-p.done:
		return 0, errs.NewFatal("core pool closed")
	default:
	}
	select {
	case <-p.done:
		return 0, errs.NewFatal("core pool closed")
	case <-ctx.Done():
		return 0, ctx.Err()
	case c = <-p.pool:
	}
	p.inflight.Add(1)

	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("core panic: %v", r))
			c = p.build()
			p.rebuild.Add(1)
		}
		select {
		case <-p.done:
		case p.pool <- c:
		}
	}()

	out = fn(c)
	return out, nil
}

func (p *corePool) close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// PoolMetrics 是亂數核心池的拉取式觀測快照
type PoolMetrics struct {
	PoolSize  int  `json:"pool_size"`
	Available int  `json:"available"`
	Inflight  int  `json:"inflight"`
	Rebuild   int  `json:"rebuild"`
	Panics    int  `json:"panics"`
	Closed    bool `json:"closed"`
}

func (p *corePool) metrics() PoolMetrics {
	closed := false
	select {
	case <-p.done:
		closed = true
	default:
	}
	return PoolMetrics{
		PoolSize:  p.size,
		Available: len(p.pool),
		Inflight:  int(p.inflight.Load()),
		Rebuild:   int(p.rebuild.Load()),
		Panics:    int(p.panics.Load()),
		Closed:    closed,
	}
}
