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

package spec

import "github.com/shopspring/decimal"

// Prize 是轉盤上的一格獎項。
//
// Weight 是相對權重，不需要加總為 1；抽樣時才正規化。
// IsBig 標記大獎（保底機制只會從 IsBig 的獎項中強制抽出）。
type Prize struct {
	Value  decimal.Decimal `yaml:"value"  json:"value"`
	Label  string          `yaml:"label"  json:"label"`
	Weight float64         `yaml:"weight" json:"weight"`
	IsBig  bool            `yaml:"is_big" json:"is_big"`
}
