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

// Package perf 為 CLI（例如 cmd/sim）包上一層 pprof 取樣。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/luckywheel/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 解析 -pprof flag；未知值回傳 errs.Warn。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.NewWarn("unknown pprof mode: " + s)
	}
}

// Run 依 mode 執行 exe 並寫出對應的 profile 到 dir（空字串使用 DefaultDir）。
//
//   - cpu：exe 執行期間的 CPU profile，也可作為 pgo 的 default.pgo
//   - heap：exe 結束後 GC 一次再拍 in-use 快照
//   - allocs：exe 結束後的累積配置
//
// exe 的錯誤優先回傳；profile 寫檔失敗以 errs.Fatal 回傳。
func Run(mode Mode, dir string, exe func() error) (path string, err error) {
	if mode == ModeNone {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(err, "create profiling dir failed")
	}
	path = filepath.Join(dir, string(mode)+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return "", errs.WrapWithExtra(err, "create profile failed", path)
	}
	defer f.Close()

	switch mode {
	case ModeCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return "", errs.Wrap(err, "start cpu profile failed")
		}
		runErr := exe()
		pprof.StopCPUProfile()
		return path, runErr
	case ModeHeap:
		if runErr := exe(); runErr != nil {
			return "", runErr
		}
		// 讓快照貼近最新的 live objects
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return "", errs.Wrap(err, "write heap profile failed")
		}
		return path, nil
	case ModeAllocs:
		if runErr := exe(); runErr != nil {
			return "", runErr
		}
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			return "", errs.Wrap(err, "write allocs profile failed")
		}
		return path, nil
	default:
		return "", errs.NewWarn("unknown pprof mode: " + string(mode))
	}
}
