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
	"github.com/zintix-labs/cbsample/corefmt"
	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/stats"
)

const (
	MaxDevDraws = 5_000
	MaxDevSim   = 3_000_000
)

// DevSimulator
//
// 只提供給 Dev 模式使用，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim *Simulator // 只開放 Sim 功能
	m   *Machine   // 與 sim 同 seed
}

func newDevSimulator(sim *Simulator, m *Machine) (*DevSimulator, error) {
	simBe, err := sim.mBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	mBe, err := m.SnapshotCore()
	if err != nil {
		return nil, err
	}
	if corefmt.EncodeBase64URL(simBe) != corefmt.EncodeBase64URL(mBe) {
		return nil, errs.NewFatal("seeds are not equal")
	}
	return &DevSimulator{sim: sim, m: m}, nil
}

// DevDrawReport 逐筆抽樣的審計報表
type DevDrawReport struct {
	Before  string           `json:"start_b64u"`
	After   string           `json:"after_b64u"`
	Trail   string           `json:"trail"` // 每筆 start 快照，corefmt.EncodeTrail 打包
	Draws   int              `json:"draws"`
	Hits    []int            `json:"hits"` // 各位置被選中次數
	Results []dto.DrawResult `json:"results"`
}

func (d *DevSimulator) drawOne() (dto.DrawResult, error) {
	req := &dto.DrawRequest{
		PlanName: d.m.planName,
		PlanID:   d.m.planID,
	}
	return d.m.Draw(req)
}

// Draws 連續抽 n 筆，保留每一筆的完整結果。
func (d *DevSimulator) Draws(n int) (DevDrawReport, error) {
	if n < 1 || n > MaxDevDraws {
		return DevDrawReport{}, errs.Invalid("draws must be between 1 and %d", MaxDevDraws)
	}

	ds := make([]dto.DrawResult, 0, n)
	trail := make([][]byte, 0, n)
	hits := make([]int, d.m.setting.Q())
	for range n {
		res, err := d.drawOne()
		if err != nil {
			return DevDrawReport{}, errs.Wrap(err, "draw error")
		}
		snap, err := corefmt.DecodeBase64URL(res.State.StartCoreSnapB64U)
		if err != nil {
			return DevDrawReport{}, err
		}
		trail = append(trail, snap)
		for _, i := range res.Cases {
			hits[i]++
		}
		ds = append(ds, res)
	}
	return DevDrawReport{
		Before:  ds[0].State.StartCoreSnapB64U,
		After:   ds[len(ds)-1].State.AfterCoreSnapB64U,
		Trail:   corefmt.EncodeTrail(trail),
		Draws:   len(ds),
		Hits:    hits,
		Results: ds,
	}, nil
}

// RestoreDraws 從 be64 快照開始重跑 n 筆
func (d *DevSimulator) RestoreDraws(be64 string, n int) (DevDrawReport, error) {
	if n < 1 || n > MaxDevDraws {
		return DevDrawReport{}, errs.Invalid("draws must be between 1 and %d", MaxDevDraws)
	}
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevDrawReport{}, errs.Invalid("decode snapshot failed: %v", err)
	}
	if err := d.m.RestoreCore(be); err != nil {
		return DevDrawReport{}, errs.Invalid("machine restore failed: %v", err)
	}
	return d.Draws(n)
}

type DevSimReport struct {
	Before string                 `json:"before"`
	After  string                 `json:"after"`
	Stat   *stats.InclusionReport `json:"statistic"`
}

// Sim 抽 n 次只回傳統計，前後快照可用於 RestoreSim 重現。
func (d *DevSimulator) Sim(n int) (DevSimReport, error) {
	if n < 1 || n > MaxDevSim {
		return DevSimReport{}, errs.Invalid("draws must be between 1 and %d", MaxDevSim)
	}
	m := d.sim.mBuf[0]
	be, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	stat, _, err := d.sim.Sim(n, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}
	af, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	return DevSimReport{
		Before: corefmt.EncodeBase64URL(be),
		After:  corefmt.EncodeBase64URL(af),
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, n int) (DevSimReport, error) {
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Invalid("decode snapshot failed: %v", err)
	}
	if err := d.sim.mBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Invalid("restore simulator failed: %v", err)
	}
	return d.Sim(n)
}
