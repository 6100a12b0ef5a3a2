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

package plan

import (
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/cbsample/sdk/sampler"
)

const yamlPlan = `
name: Pilot
id: 7
method: MCMC
pi: [0.1, 0.5, 0.9, 0.3]
r: 2
`

func TestGetSettingByYAML(t *testing.T) {
	s, err := GetSettingByYAML([]byte(yamlPlan))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Name != "Pilot" || s.ID != 7 || s.R != 2 || s.Q() != 4 {
		t.Fatalf("unexpected setting: %+v", s)
	}
	if s.SamplerMethod() != sampler.MethodMCMC || s.Method != "mcmc" {
		t.Fatalf("method not normalized: %q", s.Method)
	}
	if s.Burnin != DefaultBurninFactor*4 {
		t.Fatalf("default burnin want %d got %d", DefaultBurninFactor*4, s.Burnin)
	}
	if s.Factory() == nil {
		t.Fatalf("default prng factory missing")
	}
	p := s.Params()
	if p.R != 2 || len(p.Pi) != 4 || p.Burnin != 40 {
		t.Fatalf("params mismatch: %+v", p)
	}
	if !strings.Contains(s.String(), "method=mcmc") {
		t.Fatalf("String: %s", s)
	}
}

func TestGetSettingByJSONAndExt(t *testing.T) {
	raw := []byte(`{"name":"j","id":1,"profile":{"kind":"linear","q":5,"low":0.1,"high":0.5},"r":2,"window":2}`)
	s, err := GetSettingByExt("j.json", raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.SamplerMethod() != sampler.MethodExact || s.Q() != 5 {
		t.Fatalf("unexpected: %+v", s)
	}
	if math.Abs(s.Pi[0]-0.1) > 1e-12 || math.Abs(s.Pi[4]-0.5) > 1e-12 {
		t.Fatalf("linear profile endpoints: %v", s.Pi)
	}
	if _, err := GetSettingByExt("j.toml", raw); err == nil {
		t.Fatalf("toml should be rejected")
	}
	if !IsConfigFile("A.YML") || IsConfigFile("a.txt") {
		t.Fatalf("IsConfigFile mismatch")
	}
}

func TestSettingRejects(t *testing.T) {
	bad := map[string]string{
		"unknown field": "name: a\npi: [0.5]\nr: 1\ncolour: red\n",
		"no name":       "pi: [0.5]\nr: 1\n",
		"empty pi":      "name: a\nr: 0\n",
		"r too big":     "name: a\npi: [0.5]\nr: 2\n",
		"pi range":      "name: a\npi: [1.5]\nr: 1\n",
		"method":        "name: a\nmethod: gibbs\npi: [0.5]\nr: 1\n",
		"prng":          "name: a\nprng: mt\npi: [0.5]\nr: 1\n",
		"window":        "name: a\npi: [0.5, 0.5, 0.5]\nr: 1\nwindow: 1\n",
		"unattainable":  "name: a\npi: [1, 1, 0.5]\nr: 1\n",
		"both sources":  "name: a\npi: [0.5]\nprofile: {kind: constant, q: 2, low: 0.5}\nr: 1\n",
		"bad profile":   "name: a\nprofile: {kind: zigzag, q: 2}\nr: 1\n",
	}
	for name, raw := range bad {
		if _, err := GetSettingByYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	// mcmc 不要求可達性：它永遠回傳剛好 r 個 case
	if _, err := GetSettingByYAML([]byte("name: a\nmethod: mcmc\npi: [1, 1, 0.5]\nr: 1\n")); err != nil {
		t.Fatalf("mcmc plan should load: %v", err)
	}
}

func TestProfiles(t *testing.T) {
	pi, err := (&Profile{Kind: "constant", Q: 3, Low: 0.2}).Expand()
	if err != nil || len(pi) != 3 || pi[2] != 0.2 {
		t.Fatalf("constant: %v %v", pi, err)
	}
	pi, err = (&Profile{Kind: "logistic", Q: 101, Low: 0.1, High: 0.9}).Expand()
	if err != nil {
		t.Fatalf("logistic: %v", err)
	}
	if !(pi[0] < pi[50] && pi[50] < pi[100]) || math.Abs(pi[50]-0.5) > 1e-12 {
		t.Fatalf("logistic must be increasing with midpoint 0.5: %v %v %v", pi[0], pi[50], pi[100])
	}
	pi, err = (&Profile{Kind: "periodic", Q: 5, Values: []float64{0.1, 0.2}}).Expand()
	if err != nil || pi[4] != 0.1 || pi[3] != 0.2 {
		t.Fatalf("periodic: %v %v", pi, err)
	}
	if _, err := (&Profile{Kind: "periodic", Q: 2}).Expand(); err == nil {
		t.Fatalf("periodic without values should fail")
	}
	if _, err := (&Profile{Kind: "constant"}).Expand(); err == nil {
		t.Fatalf("q=0 should fail")
	}
}

func TestSeedFromKey(t *testing.T) {
	if got := SeedFromKey(""); got != 0x6f46db3751d8e999 {
		t.Fatalf("xxhash of empty key: %#x", got)
	}
	a, b := SeedFromKey("study/1"), SeedFromKey("study/2")
	if a == b || a < 0 || b < 0 {
		t.Fatalf("seeds must differ and be non-negative: %d %d", a, b)
	}
	if SeedFromKey("study/1") != a {
		t.Fatalf("seed must be stable")
	}
}
