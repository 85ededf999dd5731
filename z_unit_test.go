package luckywheel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/store"
)

var (
	t0    = time.UnixMilli(1_700_000_000_000)
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func setting(bigWinEvery int, cooldown string) *spec.SpinSetting {
	return &spec.SpinSetting{
		Name:        "test",
		BigWinEvery: bigWinEvery,
		Cooldown:    cooldown,
		Prizes: []spec.Prize{
			{Value: decimal.NewFromInt(1), Label: "small", Weight: 60},
			{Value: decimal.NewFromInt(5), Label: "medium", Weight: 35},
			{Value: decimal.NewFromInt(100), Label: "big", Weight: 5, IsBig: true},
		},
	}
}

func newWheel(t *testing.T, cf core.PRNGFactory, ss *spec.SpinSetting, st store.Store, opts ...Option) *Wheel {
	t.Helper()
	opts = append([]Option{WithSeed(42), WithLogger(quiet)}, opts...)
	w, err := New(cf, ss, st, opts...)
	if err != nil {
		t.Fatalf("new wheel: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestCheckCooldown(t *testing.T) {
	const T = int64(1_000_000)
	W := 10 * time.Second
	cases := []struct {
		name    string
		st      store.State
		now     int64
		allowed bool
		next    int64
	}{
		{"never spun", store.State{}, 1, true, 0},
		{"one ms early", store.State{LastSpinAt: T}, T + 10_000 - 1, false, T + 10_000},
		{"exact boundary", store.State{LastSpinAt: T}, T + 10_000, true, 0},
		{"same instant", store.State{LastSpinAt: T}, T, false, T + 10_000},
	}
	for _, c := range cases {
		g := CheckCooldown(c.st, c.now, W)
		if g.Allowed != c.allowed || (!c.allowed && g.NextAllowedAt != c.next) {
			t.Errorf("[%s] got %+v", c.name, g)
		}
	}
	if g := CheckCooldown(store.State{LastSpinAt: T}, T, 0); !g.Allowed {
		t.Fatalf("zero window should always allow")
	}
}

func TestDecidePity(t *testing.T) {
	cases := []struct {
		streak, every int
		want          PityDecision
	}{
		{0, 1, ForceBig},
		{0, 3, NoConstraint},
		{1, 3, NoConstraint},
		{2, 3, ForceBig},
		{5, 3, ForceBig},
		{1_000_000, spec.PityDisabled, NoConstraint},
	}
	for _, c := range cases {
		if got := DecidePity(c.streak, c.every); got != c.want {
			t.Errorf("DecidePity(%d,%d)=%s want %s", c.streak, c.every, got, c.want)
		}
	}
	if nextStreak(4, true) != 0 || nextStreak(4, false) != 5 {
		t.Fatalf("nextStreak mismatch")
	}
}

func TestSpinCooldownBoundary(t *testing.T) {
	w := newWheel(t, core.Default(), setting(20, "10s"), store.NewMemory())
	ctx := context.Background()

	if _, err := w.Spin(ctx, "u1", t0); err != nil {
		t.Fatalf("first spin: %v", err)
	}
	_, err := w.Spin(ctx, "u1", t0.Add(10*time.Second-time.Millisecond))
	ce, ok := AsCooldown(err)
	if !ok {
		t.Fatalf("expected cooldown, got %v", err)
	}
	if want := t0.Add(10 * time.Second).UnixMilli(); ce.NextAllowedAt != want {
		t.Fatalf("nextAllowedAt %d want %d", ce.NextAllowedAt, want)
	}
	if _, err := w.Spin(ctx, "u1", t0.Add(10*time.Second)); err != nil {
		t.Fatalf("spin at boundary: %v", err)
	}
}

func TestDeniedSpinDoesNotMutate(t *testing.T) {
	st := store.NewMemory()
	w := newWheel(t, core.Default(), setting(20, "1h"), st)
	ctx := context.Background()

	res, err := w.Spin(ctx, "u1", t0)
	if err != nil {
		t.Fatalf("first spin: %v", err)
	}
	before, _ := st.Get(ctx, "u1")
	if before.LastSpinAt != res.ServerTime || before.NonBigStreak != res.Streak {
		t.Fatalf("state %+v does not match result %+v", before, res)
	}
	for i := 1; i <= 5; i++ {
		if _, err := w.Spin(ctx, "u1", t0.Add(time.Duration(i)*time.Minute)); err == nil {
			t.Fatalf("spin %d should be denied", i)
		}
	}
	after, _ := st.Get(ctx, "u1")
	if after != before {
		t.Fatalf("state mutated on denial: %+v -> %+v", before, after)
	}
}

func TestPityGuarantee(t *testing.T) {
	ss := setting(20, "1s")
	ss.Prizes[2].Weight = 0.01
	w := newWheel(t, core.Default(), ss, store.NewMemory())
	ctx := context.Background()

	run, forced := 0, 0
	for i := 0; i < 1000; i++ {
		res, err := w.Spin(ctx, "u1", t0.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		if res.Forced {
			forced++
		}
		if res.Prize.IsBig {
			run = 0
			continue
		}
		run++
		if run >= 20 {
			t.Fatalf("20 consecutive non-big results ending at spin %d", i)
		}
	}
	if forced == 0 {
		t.Fatalf("expected forced big wins with a rare big prize")
	}
}

func TestPityExactness(t *testing.T) {
	// 腳本永遠回 0：自然抽獎一定是 small
	w := newWheel(t, core.ScriptedFactory{Vals: []float64{0}}, setting(3, "1s"), store.NewMemory())
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		res, err := w.Spin(ctx, "u1", t0.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		wantBig := i%3 == 2
		if res.Prize.IsBig != wantBig || res.Forced != wantBig {
			t.Fatalf("spin %d: big=%v forced=%v", i, res.Prize.IsBig, res.Forced)
		}
		if wantBig && res.PrizeIndex != 2 {
			t.Fatalf("spin %d: forced draw mapped to %d", i, res.PrizeIndex)
		}
	}
}

func TestBigWinEveryOneAlwaysBig(t *testing.T) {
	w := newWheel(t, core.Default(), setting(1, "1s"), store.NewMemory())
	for i := 0; i < 50; i++ {
		res, err := w.Spin(context.Background(), "u1", t0.Add(time.Duration(i)*time.Second))
		if err != nil || !res.Prize.IsBig {
			t.Fatalf("spin %d: %+v %v", i, res, err)
		}
	}
}

func TestConcurrentSameKey(t *testing.T) {
	w := newWheel(t, core.Default(), setting(20, "24h"), store.NewMemory(), WithPoolSize(4))
	const n = 64
	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		oks, cooldowns int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Spin(context.Background(), "shared", t0)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else if _, ok := AsCooldown(err); ok {
				cooldowns++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if oks != 1 || cooldowns != n-1 {
		t.Fatalf("ok=%d cooldown=%d", oks, cooldowns)
	}
}

func TestNewRejectsConfig(t *testing.T) {
	allZero := setting(3, "1s")
	for i := range allZero.Prizes {
		allZero.Prizes[i].Weight = 0
	}
	noBig := setting(3, "1s")
	noBig.Prizes[2].IsBig = false
	zeroBigWeight := setting(3, "1s")
	zeroBigWeight.Prizes[2].Weight = 0
	badEvery := setting(0, "1s")
	badCooldown := setting(3, "soon")
	empty := &spec.SpinSetting{BigWinEvery: 3}

	cases := map[string]*spec.SpinSetting{
		"all zero":        allZero,
		"no big":          noBig,
		"zero big weight": zeroBigWeight,
		"bigWinEvery 0":   badEvery,
		"bad cooldown":    badCooldown,
		"empty":           empty,
		"nil":             nil,
	}
	for name, ss := range cases {
		_, err := New(core.Default(), ss, store.NewMemory(), WithSeed(1))
		if err == nil {
			t.Errorf("[%s] expected error", name)
			continue
		}
		if !errs.IsFatal(err) {
			t.Errorf("[%s] expected fatal, got %v", name, err)
		}
	}
	if _, err := New(nil, setting(3, "1s"), store.NewMemory()); err == nil {
		t.Errorf("nil factory should fail")
	}
	if _, err := New(core.Default(), setting(3, "1s"), nil); err == nil {
		t.Errorf("nil store should fail")
	}
}

func TestSinglePrize(t *testing.T) {
	ss := &spec.SpinSetting{
		BigWinEvery: 5,
		Cooldown:    "0s",
		Prizes:      []spec.Prize{{Value: decimal.NewFromInt(7), Label: "only", Weight: 3, IsBig: true}},
	}
	w := newWheel(t, core.Default(), ss, store.NewMemory())
	for i := 0; i < 20; i++ {
		res, err := w.Spin(context.Background(), "u1", t0)
		if err != nil || res.PrizeIndex != 0 {
			t.Fatalf("spin %d: %+v %v", i, res, err)
		}
	}
	if w.Chance(0) != 1 || w.BigChance() != 1 {
		t.Fatalf("unexpected chance")
	}
}

func TestSpinRejectsPreEpochTime(t *testing.T) {
	w := newWheel(t, core.Default(), setting(3, "1s"), store.NewMemory())
	_, err := w.Spin(context.Background(), "u1", time.UnixMilli(0))
	if err == nil || errs.Level(err) != errs.Warn {
		t.Fatalf("expected warn, got %v", err)
	}
}

func TestSpinHonorsCanceledContext(t *testing.T) {
	w := newWheel(t, core.Default(), setting(3, "1s"), store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Spin(ctx, "u1", t0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestCorePoolWaitsOnContext(t *testing.T) {
	p, err := newCorePool(1, core.Default(), 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = p.with(context.Background(), func(c *core.Core) int {
			close(started)
			<-hold
			return 0
		})
	}()
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.with(ctx, func(*core.Core) int { return 0 }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	close(hold)

	p.close()
	if _, err := p.with(context.Background(), func(*core.Core) int { return 0 }); err == nil {
		t.Fatalf("closed pool should fail")
	}
	if !p.metrics().Closed {
		t.Fatalf("metrics should report closed")
	}
}

func TestCorePoolRecoversPanic(t *testing.T) {
	p, err := newCorePool(1, core.Default(), 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	_, err = p.with(context.Background(), func(*core.Core) int { panic("bad core") })
	if !errs.IsFatal(err) {
		t.Fatalf("expected fatal, got %v", err)
	}
	m := p.metrics()
	if m.Panics != 1 || m.Rebuild != 1 || m.Available != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if _, err := p.with(context.Background(), func(*core.Core) int { return 1 }); err != nil {
		t.Fatalf("pool unusable after panic: %v", err)
	}
}

func TestSeedMakerUnique(t *testing.T) {
	sm := newSeedMaker(7)
	seen := make(map[int64]struct{}, 10_000)
	for i := 0; i < 10_000; i++ {
		s := sm.next()
		if s < 0 {
			t.Fatalf("negative seed %d", s)
		}
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate seed at %d", i)
		}
		seen[s] = struct{}{}
	}
}

func TestSimulatorWithProbe(t *testing.T) {
	w := newWheel(t, core.Default(), setting(10, "1h"), store.NewMemory(), WithPoolSize(4))
	sim, err := NewSimulator(w)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	rep, _, err := sim.Run(context.Background(), SimConfig{Players: 50, SpinsPerPlayer: 40, Workers: 4, Probe: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	s := rep.Summary
	if s.Spins != 2000 || s.Denied != 2000 || s.Players != 50 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.PityViolations != 0 || s.LongestNonBig > 9 {
		t.Fatalf("pity broken: %+v", s)
	}
	total := 0
	for _, p := range rep.Prizes {
		total += p.Count
	}
	if total != s.Spins {
		t.Fatalf("prize counts %d != spins %d", total, s.Spins)
	}
}

func TestSimulatorDistributionConverges(t *testing.T) {
	w := newWheel(t, core.Default(), setting(spec.PityDisabled, "1m"), store.NewMemory(), WithPoolSize(2))
	sim, _ := NewSimulator(w)
	rep, _, err := sim.Run(context.Background(), SimConfig{Players: 200, SpinsPerPlayer: 100, Workers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	s := rep.Summary
	if s.Forced != 0 {
		t.Fatalf("pity disabled but %d forced", s.Forced)
	}
	if s.ChiDF != 2 {
		t.Fatalf("unexpected df: %d", s.ChiDF)
	}
	if s.ChiP < 1e-4 {
		t.Fatalf("distribution rejected: chi2=%.3f p=%.6f", s.ChiSquare, s.ChiP)
	}
	if s.BigRate < 0.04 || s.BigRate > 0.06 {
		t.Fatalf("big rate %.4f too far from 0.05", s.BigRate)
	}
	if s.BigRateCI.Lo > s.BigRate || s.BigRateCI.Hi < s.BigRate {
		t.Fatalf("CI %+v does not contain the estimate %.4f", s.BigRateCI, s.BigRate)
	}
}

func TestSimulatorRejectsBadConfig(t *testing.T) {
	w := newWheel(t, core.Default(), setting(3, "1s"), store.NewMemory())
	sim, _ := NewSimulator(w)
	if _, _, err := sim.Run(context.Background(), SimConfig{Players: 0, SpinsPerPlayer: 1}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewSimulator(nil); err == nil {
		t.Fatalf("expected error for nil wheel")
	}
}
