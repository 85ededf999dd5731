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

package httperr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/dto"
	"github.com/zintix-labs/luckywheel/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
//   - *luckywheel.CooldownError → 429（預期內的拒絕，不是錯誤）
//   - ctx timeout/cancel       → 504/408
//   - errs.Warn                → 400
//   - errs.Fatal / 其他         → 500
//
// 放在 server/* 而不是 errs，避免核心錯誤包依賴 net/http。
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if _, ok := luckywheel.AsCooldown(err); ok {
		return http.StatusTooManyRequests
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Reason 回傳 status 對應的 reason 字串
func Reason(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return dto.ReasonCooldown
	case http.StatusBadRequest:
		return dto.ReasonBadRequest
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return dto.ReasonTimeout
	default:
		return dto.ReasonInternal
	}
}

// Write 把錯誤寫成 JSON 回應。冷卻中會帶 Retry-After（秒，無條件進位）與 nextAllowedAt。
//
// now 為伺服器目前時間（ms epoch），只用於計算 Retry-After。
// 內部錯誤細節不寫回 client。
func Write(w http.ResponseWriter, err error, now int64) {
	if err == nil {
		return
	}
	if ce, ok := luckywheel.AsCooldown(err); ok {
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(ce, now), 10))
		WriteJSON(w, http.StatusTooManyRequests, dto.NewDeniedResponse(ce))
		return
	}
	status := StatusCode(err)
	WriteJSON(w, status, dto.ErrorResponse{OK: false, Reason: Reason(status)})
}

func retryAfterSeconds(ce *luckywheel.CooldownError, now int64) int64 {
	ms := ce.NextAllowedAt - now
	if ms <= 0 {
		return 1
	}
	return (ms + 999) / 1000
}

// WriteJSON 先完整編碼再寫出，避免寫到一半才發生錯誤。
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		status = http.StatusInternalServerError
		b.Reset()
		b.WriteString(`{"ok":false,"reason":"` + dto.ReasonInternal + `"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b.Bytes())
}

// Log 依 status 決定 log 等級：5xx Error、408/504 Warn；其他（含冷卻 429、400）交給 access log。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
