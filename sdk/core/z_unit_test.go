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
	for _, name := range []string{"pcg64", "pcg32"} {
		f, ok := FactoryByName(name)
		if !ok {
			t.Fatalf("factory %s not found", name)
		}
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 16; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("%s Uint64 mismatch at %d", name, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("%s IntN mismatch", name)
		}
		if c1.UintN(10) != c2.UintN(10) {
			t.Fatalf("%s UintN mismatch", name)
		}
	}
	if _, ok := FactoryByName("mt19937"); ok {
		t.Fatalf("unknown factory should not resolve")
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, f := range []PRNGFactory{Default(), Lite()} {
		c := New(f.New(42))
		c.Uint64()
		snap, err := c.Snapshot()
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		want := []float64{c.Float64(), c.Float64(), c.Float64()}

		c2 := New(f.New(1))
		if err := c2.Restore(snap); err != nil {
			t.Fatalf("restore: %v", err)
		}
		for i, w := range want {
			if got := c2.Float64(); got != w {
				t.Fatalf("after restore step %d: want %v got %v", i, w, got)
			}
		}
	}
	if err := New(Lite().New(1)).Restore([]byte{1, 2}); err == nil {
		t.Fatalf("short pcg32 snapshot should fail")
	}
}

func TestBoundedRanges(t *testing.T) {
	c := New(Default().New(3))
	if c.IntN(0) != -1 || c.UintN(0) != 0 {
		t.Fatalf("zero bound contract broken")
	}
	for i := 0; i < 1000; i++ {
		if v := c.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("IntN out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
}

func TestBernoulli(t *testing.T) {
	c := New(Default().New(9))
	ones := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if c.Bernoulli(0) {
			t.Fatalf("p=0 returned true")
		}
		if !c.Bernoulli(1) {
			t.Fatalf("p=1 returned false")
		}
		if c.Bernoulli(0.25) {
			ones++
		}
	}
	// 標準差約 0.003，容忍 6 sigma
	if got := float64(ones) / n; got < 0.232 || got > 0.268 {
		t.Fatalf("Bernoulli(0.25) frequency %v", got)
	}
}
