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

package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/cbsample/plan"
)

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for k, v := range files {
		m[k] = &fstest.MapFile{Data: []byte(v)}
	}
	return m
}

func TestCatalogRegisterAndRead(t *testing.T) {
	src := mapFS(map[string]string{
		"a.yaml":   "name: Alpha\nid: 2\npi: [0.5, 0.5]\nr: 1\n",
		"b.json":   `{"name":"beta","id":1,"pi":[0.2,0.4,0.6],"r":2,"method":"reject"}`,
		"notes.md": "ignored",
	})
	c, err := New(src)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Cfg().Names(); len(got) != 2 || got[0] != "a.yaml" || got[1] != "b.json" {
		t.Fatalf("names: %v", got)
	}
	err = c.Register(
		Entry{PID: 2, Name: " Alpha ", ConfigName: "a.yaml"},
		Entry{PID: 1, Name: "beta", ConfigName: "b.json"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids not sorted: %v", ids)
	}
	if e, ok := c.GetByName("ALPHA"); !ok || e.PID != 2 {
		t.Fatalf("lookup by name failed: %+v", e)
	}

	s, err := c.SettingByName("beta")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sum := NewSummary(s)
	if sum.Method != "reject" || sum.Q != 3 || sum.PRNG != "pcg64" {
		t.Fatalf("summary: %+v", sum)
	}
	if _, err := c.SettingByID(plan.PID(99)); err == nil {
		t.Fatalf("missing id should fail")
	}

	c.Freeze()
	if !c.IsFrozen() {
		t.Fatalf("freeze flag")
	}
	if err := c.Register(Entry{PID: 3, Name: "x", ConfigName: "a.yaml"}); err == nil {
		t.Fatalf("register after freeze should fail")
	}
}

func TestCatalogRejects(t *testing.T) {
	src := mapFS(map[string]string{
		"a.yaml": "name: a\npi: [0.5]\nr: 1\n",
		"b.yaml": "name: b\npi: [0.5]\nr: 1\n",
	})
	c, err := New(src)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Register(Entry{PID: 1, Name: "a", ConfigName: "a.yaml"}, Entry{PID: 1, Name: "b", ConfigName: "b.yaml"}); !errors.Is(err, ErrDupID) {
		t.Fatalf("want dup id, got %v", err)
	}
	if len(c.IDs()) != 0 {
		t.Fatalf("failed batch must not be partially registered")
	}
	if err := c.Register(Entry{PID: 1, Name: "a", ConfigName: "a.yaml"}, Entry{PID: 2, Name: "A", ConfigName: "b.yaml"}); !errors.Is(err, ErrDupName) {
		t.Fatalf("want dup name, got %v", err)
	}
	for _, bad := range []string{"", "../a.yaml", ".a.yaml", "a.txt", "missing.yaml"} {
		if err := c.Register(Entry{PID: 5, Name: "z", ConfigName: bad}); err == nil {
			t.Fatalf("config name %q should be rejected", bad)
		}
	}

	if _, err := New(); err == nil {
		t.Fatalf("no fs should fail")
	}
	nested := fstest.MapFS{"dir/a.yaml": &fstest.MapFile{Data: []byte("x")}}
	if _, err := New(nested); err == nil {
		t.Fatalf("nested fs should fail")
	}
	if _, err := New(src, mapFS(map[string]string{"a.yaml": "x"})); err == nil {
		t.Fatalf("duplicate across fs should fail")
	}
}
