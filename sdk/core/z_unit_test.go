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

package core

import (
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.Float64() != c2.Float64() {
		t.Fatalf("Float64 mismatch")
	}
}

func TestPCG64Bounds(t *testing.T) {
	c := New(Default().New(3))
	for i := 0; i < 10000; i++ {
		f := c.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		if n := c.IntN(7); n < 0 || n >= 7 {
			t.Fatalf("IntN out of range: %d", n)
		}
	}
	if c.IntN(0) != -1 || c.UintN(0) != 0 {
		t.Fatalf("unexpected sentinel for empty range")
	}
}

func TestPCG64SnapshotRestore(t *testing.T) {
	c := New(Default().New(11))
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i, w := range want {
		if got := c.Uint64(); got != w {
			t.Fatalf("replay mismatch at %d: got %d want %d", i, got, w)
		}
	}
}

func TestScriptedReplaysAndCycles(t *testing.T) {
	s := NewScripted(0.1, 0.9, 1.5, -1)
	want := []float64{0.1, 0.9}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Fatalf("step %d: got %v want %v", i, got, w)
		}
	}
	if got := s.Float64(); got >= 1 {
		t.Fatalf("value must be clamped below 1, got %v", got)
	}
	if got := s.Float64(); got != 0 {
		t.Fatalf("negative value must clamp to 0, got %v", got)
	}
	if got := s.Float64(); got != 0.1 {
		t.Fatalf("script must cycle, got %v", got)
	}
	if got := s.IntN(10); got != 9 {
		t.Fatalf("IntN from 0.9 over 10 should be 9, got %d", got)
	}
}

func TestCoreUniform(t *testing.T) {
	c := New(NewScripted(0.5))
	if got := c.Uniform(8); got != 4 {
		t.Fatalf("Uniform(8) with 0.5 = %v, want 4", got)
	}
	if got := c.Uniform(-1); got != 0 {
		t.Fatalf("Uniform on non-positive bound must be 0, got %v", got)
	}
}
