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

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"github.com/zintix-labs/luckywheel/errs"
	"gopkg.in/yaml.v3"
)

// GetSpinSettingByYAML
// 讀取 YAML 設定（嚴格模式：多寫/拼錯欄位就報錯）並執行 Validate 後回傳。
func GetSpinSettingByYAML(data []byte) (*SpinSetting, error) {
	ss := &SpinSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ss); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal yaml")
	}
	if err := ss.Validate(); err != nil {
		return nil, errs.Wrap(err, "spin setting validate err")
	}
	return ss, nil
}

// GetSpinSettingByJSON
// 讀取 JSON 設定（拒絕未知欄位）並執行 Validate 後回傳。
func GetSpinSettingByJSON(data []byte) (*SpinSetting, error) {
	ss := &SpinSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ss); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal json")
	}
	if err := ss.Validate(); err != nil {
		return nil, errs.Wrap(err, "spin setting validate err")
	}
	return ss, nil
}

// LoadSpinSetting 從 fs.FS 讀取設定檔，依副檔名選擇解析器（.yaml/.yml/.json）。
//
// 設定來源一律以 fs.FS 注入：go:embed 的預設設定與 os.DirFS 的本地檔案走同一條路徑。
func LoadSpinSetting(fsys fs.FS, name string) (*SpinSetting, error) {
	if fsys == nil {
		return nil, errs.NewFatal("config fs required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "read spin setting failed", name)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return GetSpinSettingByYAML(data)
	case ".json":
		return GetSpinSettingByJSON(data)
	default:
		return nil, errs.NewWithExtra(errs.Fatal, "unsupported config extension", name)
	}
}
