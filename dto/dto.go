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

// Package dto 定義對外 HTTP 的請求與回應結構（JSON）。
package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/spec"
)

// 失敗回應的 reason
const (
	ReasonCooldown   = "COOLDOWN"
	ReasonInternal   = "INTERNAL"
	ReasonBadRequest = "BAD_REQUEST"
	ReasonTimeout    = "TIMEOUT"
)

// Prize 是獎項的對外結構；value 以 JSON number 輸出，不經過 float64。
type Prize struct {
	Value json.Number `json:"value"`
	Label string      `json:"label"`
	IsBig bool        `json:"isBig"`
}

// SpinResponse 200
type SpinResponse struct {
	OK         bool   `json:"ok"`
	SpinID     string `json:"spinId"`
	Prize      Prize  `json:"prize"`
	ServerTime int64  `json:"serverTime"` // ms epoch
	CooldownMs int64  `json:"cooldownMs"`
}

// DeniedResponse 429
type DeniedResponse struct {
	OK            bool   `json:"ok"`
	Reason        string `json:"reason"`
	NextAllowedAt int64  `json:"nextAllowedAt"` // ms epoch
}

// ErrorResponse 4xx/5xx（冷卻以外）
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

func NewPrize(p spec.Prize) Prize {
	return Prize{
		Value: json.Number(p.Value.String()),
		Label: p.Label,
		IsBig: p.IsBig,
	}
}

func NewSpinResponse(res luckywheel.SpinResult) SpinResponse {
	return SpinResponse{
		OK:         true,
		SpinID:     res.ID,
		Prize:      NewPrize(res.Prize),
		ServerTime: res.ServerTime,
		CooldownMs: res.Cooldown.Milliseconds(),
	}
}

func NewDeniedResponse(ce *luckywheel.CooldownError) DeniedResponse {
	return DeniedResponse{
		OK:            false,
		Reason:        ReasonCooldown,
		NextAllowedAt: ce.NextAllowedAt,
	}
}

// PrizeEntry 是獎項列表中的一項，chance 為百分比（四位小數）
type PrizeEntry struct {
	Index  int         `json:"index"`
	Value  json.Number `json:"value"`
	Label  string      `json:"label"`
	IsBig  bool        `json:"isBig"`
	Chance json.Number `json:"chance"`
}

// PrizeList 是 GET /v1/prizes 的回應
type PrizeList struct {
	Name        string       `json:"name,omitempty"`
	BigWinEvery int          `json:"bigWinEvery,omitempty"` // 0 表示關閉保底
	CooldownMs  int64        `json:"cooldownMs"`
	Prizes      []PrizeEntry `json:"prizes"`
}

func NewPrizeList(w *luckywheel.Wheel) PrizeList {
	ps := w.Prizes()
	out := PrizeList{
		Name:       w.Setting().Name,
		CooldownMs: w.Window().Milliseconds(),
		Prizes:     make([]PrizeEntry, len(ps)),
	}
	if w.BigWinEvery() != spec.PityDisabled {
		out.BigWinEvery = w.BigWinEvery()
	}
	for i, p := range ps {
		chance := decimal.NewFromFloat(100 * w.Chance(i)).Round(4)
		out.Prizes[i] = PrizeEntry{
			Index:  i,
			Value:  json.Number(p.Value.String()),
			Label:  p.Label,
			IsBig:  p.IsBig,
			Chance: json.Number(chance.String()),
		}
	}
	return out
}
