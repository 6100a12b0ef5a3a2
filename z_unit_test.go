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

package cbsample

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/cbsample/corefmt"
	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"alpha.yaml": {Data: []byte("name: Alpha\nid: 1\npi: [0.2, 0.5, 0.8, 0.4, 0.6]\nr: 2\nwindow: 3\n")},
		"beta.yaml":  {Data: []byte("name: Beta\nid: 2\nmethod: mcmc\nprng: pcg32\npi: [0.3, 0.3, 0.6, 0.9]\nr: 2\nburnin: 200\n")},
		"gamma.json": {Data: []byte(`{"name":"Gamma","id":3,"method":"reject","pi":[0.5,0.5,0.5],"r":1}`)},
		"README.md":  {Data: []byte("ignored")},
	}
}

func newTestLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(Configs(testFS()))
	require.NoError(t, err)
	return lab
}

func TestLabRegisterAll(t *testing.T) {
	lab := newTestLab(t)
	assert.Equal(t, []plan.PID{1, 2, 3}, lab.IDs())

	e, ok := lab.EntryByName("beta")
	require.True(t, ok)
	assert.Equal(t, plan.PID(2), e.PID)
	assert.Equal(t, "beta.yaml", e.ConfigName)

	sum, err := lab.Summary()
	require.NoError(t, err)
	require.Len(t, sum, 3)
	assert.Equal(t, "mcmc", sum[1].Method)
	assert.Equal(t, "pcg32", sum[1].PRNG)
	assert.Equal(t, 5, sum[0].Q)
}

func TestLabRejects(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	dup := testFS()
	dup["delta.yaml"] = &fstest.MapFile{Data: []byte("name: Delta\nid: 1\npi: [0.5]\nr: 0\n")}
	_, err = NewAuto(Configs(dup))
	assert.Error(t, err)

	bad := fstest.MapFS{"x.yaml": {Data: []byte("name: X\nid: 9\npi: [0.5, 1.5]\nr: 1\n")}}
	_, err = NewAuto(Configs(bad))
	assert.Error(t, err)

	lab, err := New(Configs(testFS()))
	require.NoError(t, err)
	_, err = lab.NewMachine(1)
	assert.Error(t, err, "catalog not frozen")
}

func TestMachineDeterministic(t *testing.T) {
	lab := newTestLab(t)
	for _, id := range lab.IDs() {
		a, err := lab.NewMachineWithSeed(id, 42)
		require.NoError(t, err)
		b, err := lab.NewMachineWithSeed(id, 42)
		require.NoError(t, err)
		for range 20 {
			xa, err := a.DrawInternal()
			require.NoError(t, err)
			xb, err := b.DrawInternal()
			require.NoError(t, err)
			assert.Equal(t, xa, xb)
		}
	}
}

func TestMachineDrawReplay(t *testing.T) {
	lab := newTestLab(t)
	m, err := lab.NewMachineWithSeed(1, 7)
	require.NoError(t, err)

	req := &dto.DrawRequest{PlanID: 1, PlanName: "alpha"}
	first, err := m.Draw(req)
	require.NoError(t, err)
	assert.Len(t, first.Cases, 2)
	assert.Equal(t, 5, first.Q)

	replay := &dto.DrawRequest{PlanID: 1, StartState: &dto.StartState{StartCoreSnapB64U: first.State.StartCoreSnapB64U}}
	again, err := m.Draw(replay)
	require.NoError(t, err)
	assert.Equal(t, first.Cases, again.Cases)
	assert.Equal(t, first.State.AfterCoreSnapB64U, again.State.AfterCoreSnapB64U)

	// 回放不推進機台本身
	next, err := m.Draw(req)
	require.NoError(t, err)
	assert.Equal(t, first.State.AfterCoreSnapB64U, next.State.StartCoreSnapB64U)

	_, err = m.Draw(&dto.DrawRequest{PlanID: 2})
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
	_, err = m.Draw(&dto.DrawRequest{PlanID: 1, PlanName: "beta"})
	assert.Error(t, err)
	bad := &dto.DrawRequest{PlanID: 1, StartState: &dto.StartState{StartCoreSnapB64U: corefmt.EncodeBase64URL([]byte("junk"))}}
	_, err = m.Draw(bad)
	assert.Error(t, err)
}

func TestRuntime(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(2)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := rt.Draw(ctx, &dto.DrawRequest{PlanID: 3})
	require.NoError(t, err)
	assert.Len(t, res.Cases, 1)

	res, err = rt.Draw(ctx, &dto.DrawRequest{PlanName: "Beta"})
	require.NoError(t, err)
	assert.Equal(t, plan.PID(2), res.PlanID)
	assert.Len(t, res.Cases, 2)

	_, err = rt.Draw(ctx, &dto.DrawRequest{PlanID: 99})
	assert.Error(t, err)

	ms := rt.Metrics()
	require.Len(t, ms, 3)
	assert.Equal(t, int64(1), ms[1].Draws)
	assert.Equal(t, 2, ms[2].Available)
	assert.Equal(t, -1, ms[0].CloseInflight)

	rt.Close()
	rt.Close()
	assert.True(t, rt.Closed())
	_, err = rt.Draw(ctx, &dto.DrawRequest{PlanID: 1})
	assert.Error(t, err)
	assert.True(t, rt.Metrics()[0].Closed)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	rt2, err := lab.BuildRuntime(1)
	require.NoError(t, err)
	_, err = rt2.Draw(canceled, &dto.DrawRequest{PlanID: 1})
	assert.Error(t, err)
}

func TestRuntimeConcurrentDraws(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(4)
	require.NoError(t, err)
	defer rt.Close()

	const workers, each = 8, 50
	errc := make(chan error, workers)
	for range workers {
		go func() {
			for range each {
				if _, err := rt.Draw(context.Background(), &dto.DrawRequest{PlanID: 1}); err != nil {
					errc <- err
					return
				}
			}
			errc <- nil
		}()
	}
	for range workers {
		require.NoError(t, <-errc)
	}
	m := rt.Metrics()[0]
	assert.Equal(t, int64(workers*each), m.Draws)
	assert.Equal(t, 0, m.Inflight)
	assert.Equal(t, 4, m.Available)
}

func TestSimulator(t *testing.T) {
	lab := newTestLab(t)
	for _, id := range lab.IDs() {
		sim, err := lab.NewSimulatorWithSeed(id, 2025)
		require.NoError(t, err)
		rep, _, err := sim.Sim(20_000, false)
		require.NoError(t, err)
		assert.Equal(t, 20_000, rep.Summary.Draws)
		assert.Zero(t, rep.Summary.Violations)
		assert.Zero(t, rep.Summary.Failures)
		// 寬鬆界線：5 個位置以內的 |z| 不應超過 6
		assert.Less(t, rep.Summary.MaxAbsZ, 6.0, "plan %d", id)
	}

	sim, err := lab.NewSimulatorWithSeed(1, 1)
	require.NoError(t, err)
	_, _, err = sim.Sim(0, false)
	assert.Error(t, err)
}

func TestSimulatorContext(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorWithSeed(1, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, _, err := sim.SimContext(ctx, 1000, false)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, context.Canceled)

	// 取消後同一台模擬器仍可正常使用
	rep, _, err = sim.SimContext(context.Background(), 200, false)
	require.NoError(t, err)
	assert.Equal(t, 200, rep.Summary.Draws)
}

func TestSimulatorMP(t *testing.T) {
	lab := newTestLab(t)
	a, err := lab.NewSimulatorWithSeed(1, 99)
	require.NoError(t, err)
	b, err := lab.NewSimulatorWithSeed(1, 99)
	require.NoError(t, err)

	ra, _, err := a.SimMP(1_000, 4, false)
	require.NoError(t, err)
	rb, _, err := b.SimMP(1_000, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 4_000, ra.Summary.Draws)
	assert.Equal(t, ra.Observed(), rb.Observed())

	_, _, err = a.SimMP(10, 0, false)
	assert.Error(t, err)
}

func TestSimulatorByConfig(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorByConfig("adhoc.yaml", []byte("name: Adhoc\nid: 50\npi: [0.1, 0.9]\nr: 1\n"), 3)
	require.NoError(t, err)
	rep, _, err := sim.Sim(500, false)
	require.NoError(t, err)
	assert.Equal(t, "Adhoc", rep.Summary.PlanName)

	_, err = lab.NewSimulatorByConfig("adhoc.toml", nil, 3)
	assert.Error(t, err)
}

func TestDevSimulator(t *testing.T) {
	lab := newTestLab(t)
	dev, err := lab.NewDevSimulator(1, 11)
	require.NoError(t, err)

	rep, err := dev.Draws(10)
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Draws)
	total := 0
	for _, h := range rep.Hits {
		total += h
	}
	assert.Equal(t, 20, total)

	trail, err := corefmt.DecodeTrail(rep.Trail)
	require.NoError(t, err)
	require.Len(t, trail, 10)
	assert.Equal(t, rep.Before, corefmt.EncodeBase64URL(trail[0]))

	again, err := dev.RestoreDraws(rep.Before, 10)
	require.NoError(t, err)
	for i := range rep.Results {
		assert.Equal(t, rep.Results[i].Cases, again.Results[i].Cases)
	}
	assert.Equal(t, rep.After, again.After)

	_, err = dev.Draws(0)
	assert.Error(t, err)
	_, err = dev.RestoreDraws("%%", 1)
	assert.Error(t, err)

	s1, err := dev.Sim(2_000)
	require.NoError(t, err)
	s2, err := dev.RestoreSim(s1.Before, 2_000)
	require.NoError(t, err)
	assert.Equal(t, s1.After, s2.After)
	assert.Equal(t, s1.Stat.Observed(), s2.Stat.Observed())
}

func TestSeedMaker(t *testing.T) {
	a := newSeedMaker(5)
	b := newSeedMaker(5)
	seen := map[int64]bool{}
	for range 1000 {
		x := a.next()
		assert.Equal(t, x, b.next())
		assert.GreaterOrEqual(t, x, int64(0))
		assert.False(t, seen[x])
		seen[x] = true
	}
	assert.Len(t, seen, 1000)
}
