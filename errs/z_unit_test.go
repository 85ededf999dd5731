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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevelOfInnerE(t *testing.T) {
	inner := NewWarn("bad header")
	got := Wrap(inner, "resolve identity")
	if got.ErrLv != Warn {
		t.Fatalf("expected warn level, got %s", got.ErrLv)
	}
	if !errors.Is(got, inner) {
		t.Fatalf("expected wrapped error to match inner")
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	got := WrapWithExtra(io.ErrUnexpectedEOF, "read state", "key=device:a")
	if got.ErrLv != Fatal {
		t.Fatalf("expected fatal level, got %s", got.ErrLv)
	}
	if !errors.Is(got, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be reachable")
	}
	msg := got.Error()
	if !strings.Contains(msg, "errlv=fatal") || !strings.Contains(msg, "key=device:a") {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		err  error
		want ErrLevel
	}{
		{nil, None},
		{io.EOF, Fatal},
		{NewLog("fallback"), Log},
		{Warnf("weight %d", 1), Warn},
	}
	for _, c := range cases {
		if got := Level(c.err); got != c.want {
			t.Errorf("Level(%v) = %s, want %s", c.err, got, c.want)
		}
	}
	if IsFatal(NewWarn("x")) {
		t.Fatalf("warn must not be fatal")
	}
}
