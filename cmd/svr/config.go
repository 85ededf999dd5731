package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/luckywheel/configs"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/store"
)

const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storePostgres = "postgres"
	storeSQLite   = "sqlite"
)

type config struct {
	addr            string
	logMode         string
	config          string
	store           string
	redisAddr       string
	redisPassword   string
	redisDB         int
	pgDSN           string
	sqlitePath      string
	seed            int64
	rngPool         int
	corsOrigins     []string
	identityHeaders []string
	spinTimeout     time.Duration
}

func parseFlags(args []string) (*config, error) {
	cfg := new(config)
	var cors, headers string
	fs := flag.NewFlagSet("svr", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", env("LW_ADDR", ":5808"), "listen address")
	fs.StringVar(&cfg.logMode, "log-mode", env("LW_LOG_MODE", "dev"), "log mode: dev|prod|silence")
	fs.StringVar(&cfg.config, "config", env("LW_CONFIG", ""), "spin setting file (.yaml/.json); empty uses the embedded default")
	fs.StringVar(&cfg.store, "store", env("LW_STORE", storeMemory), "state store: memory|redis|postgres|sqlite")
	fs.StringVar(&cfg.redisAddr, "redis-addr", env("LW_REDIS_ADDR", "localhost:6379"), "redis address")
	fs.StringVar(&cfg.redisPassword, "redis-password", env("LW_REDIS_PASSWORD", ""), "redis password")
	fs.IntVar(&cfg.redisDB, "redis-db", envInt("LW_REDIS_DB", 0), "redis db index")
	fs.StringVar(&cfg.pgDSN, "pg-dsn", env("LW_PG_DSN", ""), "postgres dsn")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", env("LW_SQLITE_PATH", "luckywheel.db"), "sqlite database file")
	fs.Int64Var(&cfg.seed, "seed", int64(envInt("LW_SEED", -1)), "int64 seed (<1 picks a random seed)")
	fs.IntVar(&cfg.rngPool, "rng-pool", envInt("LW_RNG_POOL", 8), "number of random cores")
	fs.StringVar(&cors, "cors-origins", env("LW_CORS_ORIGINS", ""), "comma separated allowed origins")
	fs.StringVar(&headers, "identity-headers", env("LW_IDENTITY_HEADERS", ""), "comma separated identity headers in priority order")
	fs.DurationVar(&cfg.spinTimeout, "spin-timeout", 3*time.Second, "per spin timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.corsOrigins = splitList(cors)
	cfg.identityHeaders = splitList(headers)
	cfg.store = strings.ToLower(strings.TrimSpace(cfg.store))
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	switch cfg.store {
	case storeMemory, storeRedis, storeSQLite:
	case storePostgres:
		if cfg.pgDSN == "" {
			return errs.NewFatal("LW_PG_DSN is required for the postgres store")
		}
	default:
		return errs.NewFatal("unknown store: " + cfg.store)
	}
	if cfg.rngPool < 1 {
		return errs.NewFatal("rng pool must > 0")
	}
	return nil
}

func (cfg *config) loadSetting() (*spec.SpinSetting, error) {
	if cfg.config == "" {
		return configs.Default()
	}
	dir, name := ".", cfg.config
	if i := strings.LastIndexAny(cfg.config, `/\`); i >= 0 {
		dir, name = cfg.config[:i+1], cfg.config[i+1:]
	}
	return spec.LoadSpinSetting(os.DirFS(dir), name)
}

func (cfg *config) openStore(ctx context.Context) (store.Store, error) {
	switch cfg.store {
	case storeRedis:
		r, err := store.DialRedis(ctx, cfg.redisAddr, cfg.redisPassword, cfg.redisDB)
		if err != nil {
			return nil, err
		}
		return r, nil
	case storePostgres:
		p, err := store.DialPostgres(ctx, cfg.pgDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	case storeSQLite:
		s, err := store.OpenSQLite(ctx, cfg.sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	v := env(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
