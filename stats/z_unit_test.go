package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/stats"
)

func mustPlan(t *testing.T, src string) *plan.Setting {
	t.Helper()
	s, err := plan.GetSettingByYAML([]byte(src))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return s
}

// buildReport 直接填入計數，模擬 recorder 的行為
func buildReport(t *testing.T, src string, expected []float64, hits []int, draws int) *stats.InclusionReport {
	t.Helper()
	r := stats.NewInclusionReport(mustPlan(t, src), expected)
	r.Summary.Draws = draws
	for i, h := range hits {
		r.Positions[i].Hits = h
	}
	r.CountDist[r.Summary.R] = draws
	r.Done()
	return r
}

const halfPlan = `
name: Half
id: 3
pi: [0.5, 0.5]
r: 1
`

func TestReportBalanced(t *testing.T) {
	r := buildReport(t, halfPlan, []float64{0.5, 0.5}, []int{50, 50}, 100)
	for _, p := range r.Positions {
		if p.Observed != 0.5 || p.Z != 0 || !p.Inside {
			t.Fatalf("position %d: %+v", p.Index, p)
		}
		if !(p.CI.Lo < 0.5 && p.CI.Hi > 0.5) {
			t.Fatalf("ci should straddle 0.5: %+v", p.CI)
		}
		if math.Abs(p.PValue-1) > 1e-12 {
			t.Fatalf("p-value want 1 got %v", p.PValue)
		}
	}
	if r.Summary.Covered != 2 || r.Summary.Coverage != 1 || r.Summary.MaxAbsZ != 0 {
		t.Fatalf("summary: %+v", r.Summary)
	}
	if r.Summary.Method != "exact" || r.Summary.PlanID != 3 {
		t.Fatalf("summary meta: %+v", r.Summary)
	}
}

func TestReportSkewed(t *testing.T) {
	r := buildReport(t, halfPlan, []float64{0.5, 0.5}, []int{90, 10}, 100)
	if math.Abs(r.Positions[0].Z-8) > 1e-9 || math.Abs(r.Positions[1].Z+8) > 1e-9 {
		t.Fatalf("z: %v %v", r.Positions[0].Z, r.Positions[1].Z)
	}
	if r.Positions[0].Inside || r.Positions[1].Inside {
		t.Fatalf("0.5 should be outside both intervals")
	}
	if r.Summary.Covered != 0 || math.Abs(r.Summary.MaxAbsZ-8) > 1e-9 || math.Abs(r.Summary.MeanAbsZ-8) > 1e-9 {
		t.Fatalf("summary: %+v", r.Summary)
	}
	if r.Positions[0].PValue > 1e-10 {
		t.Fatalf("p-value too large: %v", r.Positions[0].PValue)
	}
}

func TestReportCertainPosition(t *testing.T) {
	src := `
name: Sure
id: 4
pi: [1, 0.5, 0.5]
r: 2
`
	r := buildReport(t, src, []float64{1, 0.5, 0.5}, []int{40, 20, 20}, 40)
	if !r.Positions[0].Inside || r.Positions[0].Z != 0 {
		t.Fatalf("sure position: %+v", r.Positions[0])
	}
	bad := buildReport(t, src, []float64{1, 0.5, 0.5}, []int{39, 21, 20}, 40)
	if bad.Positions[0].Inside {
		t.Fatalf("a miss on a sure position must be flagged")
	}
	if r.Summary.Certain != 0 || bad.Summary.Certain != 1 {
		t.Fatalf("certain miss count: good=%d bad=%d", r.Summary.Certain, bad.Summary.Certain)
	}
}

func TestReportNoDraws(t *testing.T) {
	r := buildReport(t, halfPlan, []float64{0.5, 0.5}, []int{0, 0}, 0)
	if r.Positions[0].CI != (stats.CI{Lo: 0, Hi: 1}) {
		t.Fatalf("empty ci: %+v", r.Positions[0].CI)
	}
}

func TestRenders(t *testing.T) {
	r := buildReport(t, halfPlan, []float64{0.5, 0.5}, []int{48, 52}, 100)

	var buf bytes.Buffer
	if err := r.WriteWith(&buf, &stats.JsonInclusionRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if _, ok := back["Positions"]; !ok {
		t.Fatalf("json missing Positions: %s", buf.String())
	}

	for _, name := range []string{"yaml", "table", "html"} {
		rd, ok := stats.RenderByName(name)
		if !ok {
			t.Fatalf("render %s missing", name)
		}
		buf.Reset()
		if err := r.WriteWith(&buf, rd); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: empty output", name)
		}
	}
	if !strings.Contains(buf.String(), "echarts") {
		t.Fatalf("html output should load echarts")
	}
	if _, ok := stats.RenderByName("xml"); ok {
		t.Fatalf("xml should be unknown")
	}
}

func TestObserved(t *testing.T) {
	r := buildReport(t, halfPlan, []float64{0.5, 0.5}, []int{25, 75}, 100)
	obs := r.Observed()
	if obs[0] != 0.25 || obs[1] != 0.75 {
		t.Fatalf("observed: %v", obs)
	}
}
