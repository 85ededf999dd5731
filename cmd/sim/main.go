package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zintix-labs/luckywheel/sdk/perf"
)

// 模擬器入口（makefile runner）
func main() {
	cfg, err := bindVar(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	path, err := perf.Run(cfg.pprof, "", func() error {
		return executeSimulator(context.Background(), cfg, os.Stdout)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if path != "" {
		fmt.Fprintln(os.Stderr, "profile written to", path)
	}
}
