package perf

import (
	"errors"
	"os"
	"testing"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeNone, "CPU": ModeCPU, " heap ": ModeHeap, "allocs": ModeAllocs} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseMode("trace"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeCPU, ModeHeap, ModeAllocs} {
		called := false
		path, err := Run(m, dir, func() error { called = true; return nil })
		if err != nil || !called {
			t.Fatalf("[%s] run: %v called=%v", m, err, called)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Fatalf("[%s] profile missing: %v", m, err)
		}
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Run(ModeNone, "", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := Run(ModeHeap, t.TempDir(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("unexpected err: %v", err)
	}
}
