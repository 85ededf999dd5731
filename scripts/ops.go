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

// ops 是開發用的任務腳本：go run ./scripts <task>
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorReset  = "\033[0m"
)

// 模擬分佈檢查的門檻：p-value 低於此值視為權重與實際抽樣不符
const minChiP = 0.001

func printColor(color, msg string) { fmt.Printf("%s%s%s\n", color, msg, colorReset) }

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-race|test-integration|sim-check]")
		os.Exit(1)
	}
	var ok bool
	switch task := os.Args[1]; task {
	case "test":
		printColor(colorGreen, "running tests")
		ok = goTest(false, "./...", "-cover", "-count=1")
	case "test-race":
		printColor(colorGreen, "running race tests (engine, stores, http)")
		ok = goTest(true, "-race", "-count=1", ".", "./store/...", "./server/...")
	case "test-integration":
		for _, k := range []string{"LW_TEST_REDIS_ADDR", "LW_TEST_PG_DSN"} {
			if os.Getenv(k) == "" {
				printColor(colorYellow, k+" not set, the matching store tests will be skipped")
			}
		}
		ok = goTest(true, "-count=1", "-v", "./store/...")
	case "sim-check":
		ok = simCheck()
	default:
		printColor(colorYellow, "Unknown task: "+task)
	}
	if !ok {
		os.Exit(1)
	}
}

// goTest 跑 go test；verbose 為 false 時只留 ok/FAIL 與建置錯誤。
func goTest(verbose bool, args ...string) bool {
	_ = exec.Command("go", "clean", "-testcache").Run()

	cmd := exec.Command("go", append([]string{"test"}, args...)...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		printColor(colorRed, err.Error())
		return false
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		printColor(colorRed, "error starting go test: "+err.Error())
		return false
	}
	filter(pipe, verbose)
	if err := cmd.Wait(); err != nil {
		printColor(colorRed, "\nTests finished with errors")
		return false
	}
	return true
}

func filter(r io.Reader, verbose bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "[no test files]"):
		case strings.HasPrefix(line, "ok"):
			printColor(colorGreen, line)
		case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
			printColor(colorRed, line)
		case verbose:
			fmt.Println(line)
		}
	}
}

// simCheck 關閉保底跑一次模擬，檢查非保底抽獎的分佈與設定權重一致。
func simCheck() bool {
	printColor(colorGreen, "running distribution check (pity off)")
	var out bytes.Buffer
	cmd := exec.Command("go", "run", "./cmd/sim", "-pity-off", "-players", "2000", "-spins", "50", "-seed", "20251017", "-progress=false", "-o", "json")
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printColor(colorRed, "sim failed: "+err.Error())
		return false
	}
	var rep struct {
		Summary struct {
			Spins     int
			ChiSquare float64
			ChiDF     int
			ChiP      float64
		}
	}
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		printColor(colorRed, "decode report: "+err.Error())
		return false
	}
	s := rep.Summary
	msg := fmt.Sprintf("spins=%d chi2=%.3f df=%d p=%.4f", s.Spins, s.ChiSquare, s.ChiDF, s.ChiP)
	if s.ChiP < minChiP {
		printColor(colorRed, msg)
		return false
	}
	printColor(colorGreen, msg)
	return true
}
