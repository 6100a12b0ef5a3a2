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

package recorder

import (
	"errors"
	"testing"

	"github.com/zintix-labs/cbsample/plan"
)

func newPlan(t *testing.T, src string) *plan.Setting {
	t.Helper()
	s, err := plan.GetSettingByYAML([]byte(src))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return s
}

const threePlan = `
name: Three
id: 1
pi: [0.2, 0.5, 0.8]
r: 2
`

func TestRecordAndDone(t *testing.T) {
	r, err := NewInclusionRecorder(newPlan(t, threePlan))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(r.Expected) != 3 {
		t.Fatalf("expected probabilities missing")
	}
	sum := r.Expected[0] + r.Expected[1] + r.Expected[2]
	if sum < 2-1e-9 || sum > 2+1e-9 {
		t.Fatalf("expected should sum to r: %v", sum)
	}

	r.Record([]bool{true, true, false})
	r.Record([]bool{false, true, true})
	r.Record([]bool{true, true, true}) // 違規
	r.Record([]bool{true})             // 長度錯誤
	r.RecordErr(errors.New("exhausted"))
	r.RecordErr(nil)

	if r.Draws != 5 || r.Failures != 2 || r.Violations != 2 {
		t.Fatalf("counters: draws=%d failures=%d violations=%d", r.Draws, r.Failures, r.Violations)
	}
	if r.Hits[0] != 2 || r.Hits[1] != 3 || r.Hits[2] != 2 {
		t.Fatalf("hits: %v", r.Hits)
	}
	if r.CountDist[2] != 2 || r.CountDist[3] != 1 {
		t.Fatalf("count dist: %v", r.CountDist)
	}

	rep := r.Done()
	if rep.Summary.Draws != 3 || rep.Summary.Failures != 2 || rep.Summary.Violations != 2 {
		t.Fatalf("report summary: %+v", rep.Summary)
	}
	// 長度錯誤的那次不能稀釋頻率
	if rep.Positions[1].Hits != 3 || rep.Positions[1].Observed != 1 {
		t.Fatalf("report position: %+v", rep.Positions[1])
	}
	if rep.Positions[0].Observed != 2.0/3 {
		t.Fatalf("report position: %+v", rep.Positions[0])
	}
}

func TestMerge(t *testing.T) {
	s := newPlan(t, threePlan)
	a, _ := NewInclusionRecorder(s)
	b, _ := NewInclusionRecorder(s)
	a.Record([]bool{true, true, false})
	b.Record([]bool{false, true, true})
	b.Record([]bool{true, false, true})

	m, err := MergeInclusionRecorder([]*InclusionRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Draws != 3 || m.Hits[0] != 2 || m.Hits[1] != 2 || m.Hits[2] != 2 || m.CountDist[2] != 3 {
		t.Fatalf("merged: %+v", m)
	}
	if a.Draws != 1 {
		t.Fatalf("merge must not mutate inputs")
	}

	other, _ := NewInclusionRecorder(newPlan(t, "name: Other\nid: 2\npi: [0.5, 0.5, 0.5]\nr: 1\n"))
	if _, err := MergeInclusionRecorder([]*InclusionRecorder{a, other}); err == nil {
		t.Fatalf("different plans should not merge")
	}
	if _, err := MergeInclusionRecorder(nil); err == nil {
		t.Fatalf("empty merge should fail")
	}
}

func TestUnattainableStillRecords(t *testing.T) {
	src := `
name: Stuck
id: 5
method: mcmc
pi: [0, 0, 0.5]
r: 2
`
	r, err := NewInclusionRecorder(newPlan(t, src))
	if err != nil {
		t.Fatalf("mcmc plan with unattainable r should still record: %v", err)
	}
	if r.Expected != nil {
		t.Fatalf("expected should be nil when r is unattainable")
	}
	r.Record([]bool{true, false, true})
	if rep := r.Done(); rep.Positions[0].Expected != 0 {
		t.Fatalf("expected column should default to 0")
	}
}
