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
	"fmt"
	"strings"
	"testing"
)

func TestKindSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel *E
	}{
		{Invalid("r=%d", 9), ErrInvalidArgument},
		{Domain("div by zero"), ErrArithmeticDomain},
		{Unattainable("r=%d", 3), ErrUnattainable},
		{IterationLimit("after %d", 10), ErrIterationLimit},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.sentinel) {
			t.Fatalf("%v should match %v", c.err, c.sentinel)
		}
		if errors.Is(c.err, ErrInvalidArgument) && c.sentinel != ErrInvalidArgument {
			t.Fatalf("%v should not match invalid argument", c.err)
		}
	}
}

func TestWrapKeepsKindAndLevel(t *testing.T) {
	base := Unattainable("r=%d", 4)
	w := Wrap(base, "draw failed")
	if w.ErrLv != Warn {
		t.Fatalf("level want warn got %v", w.ErrLv)
	}
	if !errors.Is(w, ErrUnattainable) {
		t.Fatalf("wrapped error lost kind")
	}
	if KindOf(fmt.Errorf("ctx: %w", w)) != KindUnattainable {
		t.Fatalf("KindOf through fmt wrap failed")
	}

	plain := Wrap(errors.New("io"), "read")
	if plain.ErrLv != Fatal || plain.Kind != KindNone {
		t.Fatalf("foreign cause should be fatal without kind: %+v", plain)
	}
}

func TestErrorString(t *testing.T) {
	e := WrapWithExtra(Domain("sqrt of negative"), "xfloat", "x=-1")
	s := e.Error()
	for _, want := range []string{"kind=arithmetic_domain", "xfloat", "x=-1", "sqrt of negative"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in %q", want, s)
		}
	}
	if KindOf(errors.New("x")) != KindNone {
		t.Fatalf("plain error should have no kind")
	}
}
