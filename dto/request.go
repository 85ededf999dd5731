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

package dto

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/zintix-labs/luckywheel/errs"
)

// maxBody 防止 body 過大
const maxBody = 1 << 16

// SpinRequest 是 POST /spin 的 body。
//
// 身分一律來自 header（見 server/identity），body 不需要任何欄位：
// 空 body 與 {} 等價；出現任何欄位都視為格式錯誤，避免 client 誤以為可以在 body 指定身分。
type SpinRequest struct{}

// DecodeSpinRequest 驗證 spin 請求的 method 與 body。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(SpinRequest)
	if r.Body == nil {
		return req, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, errs.NewWarn("read body failed: " + err.Error())
	}
	if len(data) > maxBody {
		return nil, errs.NewWarn("body too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errs.NewWarn("invalid json: " + err.Error())
	}
	return req, nil
}
