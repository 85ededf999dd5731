package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/configs"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/sdk/perf"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/stats"
	"github.com/zintix-labs/luckywheel/store"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const maxPlayers = 1_000_000

type config struct {
	config   string
	players  int
	spins    int
	workers  int
	seed     int64
	pityOff  bool
	probe    bool
	progress bool
	output   string
	pprof    perf.Mode
}

func bindVar(args []string) (*config, error) {
	cfg := new(config)
	var pm string
	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	fs.StringVar(&cfg.config, "config", "", "spin setting file (.yaml/.json); empty uses the embedded default")
	fs.IntVar(&cfg.players, "players", 1000, "number of simulated players")
	fs.IntVar(&cfg.spins, "spins", 100, "successful spins per player")
	fs.IntVar(&cfg.workers, "workers", 4, "number of workers")
	fs.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator (<1 picks a random seed)")
	fs.BoolVar(&cfg.pityOff, "pity-off", false, "disable the big win guarantee (distribution check)")
	fs.BoolVar(&cfg.probe, "probe", false, "retry mid-cooldown after every spin and require a denial")
	fs.BoolVar(&cfg.progress, "progress", true, "show progress bar")
	fs.StringVar(&cfg.output, "o", "table", "report format: table|json|yaml")
	fs.StringVar(&pm, "pprof", "", "pprof: '', cpu, heap, allocs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mode, err := perf.ParseMode(pm)
	if err != nil {
		return nil, err
	}
	cfg.pprof = mode
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)
	if cfg.workers < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.players < 1 {
		return errs.NewWarn("value err : players must > 0")
	}
	if cfg.players > maxPlayers {
		p.Fprintf(os.Stderr, "too many players: %d resized to %d\n", cfg.players, maxPlayers)
		cfg.players = maxPlayers
	}
	if cfg.spins < 1 {
		return errs.NewWarn("value err : spins must > 0")
	}
	switch cfg.output {
	case "table", "json", "yaml":
	default:
		return errs.NewWarn("value err : unknown output " + cfg.output)
	}
	return nil
}

func (cfg *config) load() (*spec.SpinSetting, error) {
	if cfg.config == "" {
		return configs.Default()
	}
	dir, name := ".", cfg.config
	if i := strings.LastIndexAny(cfg.config, `/\`); i >= 0 {
		dir, name = cfg.config[:i+1], cfg.config[i+1:]
	}
	return spec.LoadSpinSetting(os.DirFS(dir), name)
}

// 這裡組裝 wheel（記憶體 store）並執行模擬
func executeSimulator(ctx context.Context, cfg *config, out io.Writer) error {
	ss, err := cfg.load()
	if err != nil {
		return err
	}
	if cfg.pityOff {
		ss.BigWinEvery = spec.PityDisabled
	}

	opts := []luckywheel.Option{luckywheel.WithPoolSize(cfg.workers)}
	if cfg.seed >= 1 {
		opts = append(opts, luckywheel.WithSeed(cfg.seed))
	}
	st := store.NewMemory()
	defer st.Close()
	w, err := luckywheel.New(core.Default(), ss, st, opts...)
	if err != nil {
		return err
	}
	defer w.Close()

	sim, err := luckywheel.NewSimulator(w)
	if err != nil {
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[WHEEL:%s] [WORKERS:%d] [PLAYERS:%d] [SPINS:%d] [SEED:%d]%s\n",
		green, ss.Name, cfg.workers, cfg.players, cfg.players*cfg.spins, w.Seed(), reset)

	simCfg := luckywheel.SimConfig{
		Players:        cfg.players,
		SpinsPerPlayer: cfg.spins,
		Workers:        cfg.workers,
		Probe:          cfg.probe,
	}
	if cfg.progress {
		simCfg.Progress = os.Stderr
	}
	rep, used, err := sim.Run(ctx, simCfg)
	if err != nil {
		return err
	}

	switch cfg.output {
	case "json":
		return rep.WriteWith(out, &stats.JsonStatReportRender{})
	case "yaml":
		return rep.WriteWith(out, &stats.YAMLStatReportRender{})
	default:
		rep.StdOut(used)
		return nil
	}
}
