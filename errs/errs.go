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

// Package errs 定義 luckywheel 全專案共用的分級錯誤型別。
//
// 分級只描述「嚴重度」，不描述傳輸層語意：
//   - Fatal：設定錯誤、儲存層失敗等不可恢復的問題（啟動期應直接中止）。
//   - Warn ：請求/參數層級的問題，呼叫端可以修正後重試。
//   - Log  ：僅需留下紀錄的狀況（例如 identity 退回匿名桶）。
//
// HTTP 狀態碼的映射放在 server/httperr，避免核心錯誤包依賴 net/http。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel 錯誤分級
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func (lv ErrLevel) String() string {
	if str, ok := errLvMap[lv]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
//   - Message：主訊息
//   - Extra  ：呼叫端追加的上下文（例如 identity key、設定檔名稱）
//   - Cause  ：下層錯誤
//   - ErrLv  ：嚴重度
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", e.ErrLv, e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E { return New(Fatal, msg) }

func NewWarn(msg string) *E { return New(Warn, msg) }

func NewLog(msg string) *E { return New(Log, msg) }

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但附加額外上下文（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以 msg 包裝底層錯誤。
//
// 分級規則：
//   - cause 已經是 *E：沿用其 ErrLv。
//   - 其他錯誤（標準庫、redis、pgx、sqlite ...）：一律視為 Fatal。
//
// 已知可處理的情境請直接用 New/NewWithExtra 指定等級，不要 Wrap。
func Wrap(cause error, msg string) *E {
	return WrapWithExtra(cause, msg, "")
}

// WrapWithExtra 同 Wrap，並附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	errLv := Fatal
	if e, ok := AsErr(cause); ok {
		errLv = e.ErrLv
	}
	r := NewWithExtra(errLv, msg, extra)
	r.Cause = cause
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Level 回傳 err 鏈上第一個 *E 的分級；非 *E 的錯誤視為 Fatal，nil 為 None。
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}

// IsFatal 判斷 err 是否代表不可恢復的狀態。
func IsFatal(err error) bool {
	return Level(err) == Fatal
}
