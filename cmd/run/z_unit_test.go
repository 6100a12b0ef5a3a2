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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"cbsample"}, args...))
	return out.String(), err
}

func TestPlansCommand(t *testing.T) {
	out, err := run(t, "plans")
	require.NoError(t, err)
	for _, name := range []string{"Uniform", "Skewed", "Chain", "Lottery", "Linear"} {
		assert.Contains(t, out, name)
	}
}

func TestSimCommandJSON(t *testing.T) {
	out, err := run(t, "sim", "--plan", "uniform", "-n", "3000", "--seed", "11", "--render", "json")
	require.NoError(t, err)
	var rep stats.InclusionReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, 3000, rep.Summary.Draws)
	assert.Zero(t, rep.Summary.Violations)

	again, err := run(t, "sim", "--plan", "1", "-n", "3000", "--seed", "11", "--render", "json")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = run(t, "sim", "--plan", "uniform", "-n", "10", "--render", "pdf")
	assert.Error(t, err)
	_, err = run(t, "sim", "--plan", "nope", "-n", "10")
	assert.Error(t, err)
}

func TestSimCommandOutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	_, err := run(t, "sim", "--plan", "Skewed", "-n", "500", "--seed", "2", "--render", "html", "--out", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<html")
}

func TestDrawCommandReplay(t *testing.T) {
	out, err := run(t, "draw", "--plan", "Lottery", "-n", "4", "--seed", "9")
	require.NoError(t, err)
	var first cbsample.DevDrawReport
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.Len(t, first.Results, 4)

	out, err = run(t, "draw", "--plan", "4", "-n", "4", "--snap", first.Before)
	require.NoError(t, err)
	var again cbsample.DevDrawReport
	require.NoError(t, json.Unmarshal([]byte(out), &again))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Cases, again.Results[i].Cases)
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"),
		[]byte("name: A\nid: 1\npi: [0.1, 0.5, 0.9, 0.3]\nr: 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"),
		[]byte(`{"name":"B","id":2,"method":"reject","pi":[0.4,0.4,0.4],"r":1}`), 0o644))

	out, err := run(t, "--config", dir, "verify", "-n", "5000")
	require.NoError(t, err, out)
	assert.Equal(t, 2, strings.Count(out, "PASS"))
}

// certainReport : pi=[0,0.5,0.5] r=1，位置 0 被抽中 hit0 次，其餘平均分配
func certainReport(t *testing.T, hit0 int) *stats.InclusionReport {
	t.Helper()
	s, err := plan.GetSettingByYAML([]byte("name: Zero\nid: 9\npi: [0, 0.5, 0.5]\nr: 1\n"))
	require.NoError(t, err)
	const draws = 1000
	rep := stats.NewInclusionReport(s, []float64{0, 0.5, 0.5})
	rep.Summary.Draws = draws
	rep.Positions[0].Hits = hit0
	rep.Positions[1].Hits = (draws - hit0) / 2
	rep.Positions[2].Hits = draws - hit0 - rep.Positions[1].Hits
	rep.CountDist[1] = draws
	rep.Done()
	return rep
}

func TestVerdictCertainMiss(t *testing.T) {
	good := certainReport(t, 0)
	assert.Zero(t, good.Summary.Certain)
	assert.True(t, verdict(good, 4))

	// 50 次抽中 pi=0 的位置：Σx 仍為 r、|z| 也不大，但必須判失敗
	bad := certainReport(t, 50)
	assert.Zero(t, bad.Summary.Violations)
	assert.Less(t, bad.Summary.MaxAbsZ, 4.0)
	assert.False(t, bad.Positions[0].Inside)
	assert.Equal(t, 1, bad.Summary.Certain)
	assert.False(t, verdict(bad, 4))

	var out bytes.Buffer
	writeVerdict(message.NewPrinter(language.English), &out, bad, false)
	assert.Contains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), "certain_miss=1")
}

func TestProfileFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "--pprof", "heap", "--pprof-dir", dir, "plans")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "heap.pprof"))
	assert.NoError(t, err)
}
