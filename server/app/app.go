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

// Package app 提供應用程式生命週期管理（App），統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 優雅關閉的期限
const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有 Component，在收到 OS 信號、ctx 取消或任一 Component 返回時協調關閉。
//
// 關閉順序：
//  1. 依註冊順序呼叫 Component.Shutdown（例如停止 HTTP server 接新請求）。
//  2. 依註冊的相反順序呼叫 OnStop hook（例如關閉 store、drain async log）。
type App struct {
	comps   []Component
	hooks   []func() error
	timeout time.Duration
}

// New 建立一個新的 App 實例。
func New() *App { return &App{timeout: DefaultShutdownTimeout} }

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

// Register 將一個 Component 註冊到 App 中。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// OnStop 註冊在所有 Component 關閉之後執行的 hook（後註冊先執行）。
func (a *App) OnStop(fn func() error) {
	if fn != nil {
		a.hooks = append(a.hooks, fn)
	}
}

// SetShutdownTimeout 設定關閉期限（<= 0 忽略）
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或任一 Component 返回。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但以 ctx 取消代替 OS 信號。
//
//   - ctx 取消：優雅關閉，回傳 nil 與關閉過程的錯誤。
//   - Component 先返回：優雅關閉，回傳該 Component 的錯誤。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var errList []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	for i := len(a.hooks) - 1; i >= 0; i-- {
		if err := a.hooks[i](); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
