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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/recorder"
	"github.com/zintix-labs/cbsample/stats"
)

const capPrepare int = 100

// Simulator 以一或多台機台大量抽樣，紀錄每個位置被選中的頻率。
type Simulator struct {
	PlanName  string
	PlanID    plan.PID
	setting   *plan.Setting
	initSeed  int64
	seedmaker *seedMaker
	mBuf      []*Machine                    // 機台實例，mBuf[0] 以 initSeed 建立
	rBuf      []*recorder.InclusionRecorder // 每台機台一份紀錄
}

func newSimulatorWithSeed(s *plan.Setting, seed int64) *Simulator {
	sim := &Simulator{
		PlanName:  s.Name,
		PlanID:    s.ID,
		setting:   s,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.InclusionRecorder, 0, capPrepare),
	}
	sim.mBuf[0] = newMachineWithSeed(s, seed)
	return sim
}

// Setting 模擬中的計畫
func (s *Simulator) Setting() *plan.Setting { return s.setting }

// Sim 單線模擬器：以一台機台連續抽 draws 次，回傳報表與用時。
//
// 單次抽樣失敗（例如 reject 用盡嘗試）計入 Failures，不中斷模擬。
func (s *Simulator) Sim(draws int, showpb bool) (*stats.InclusionReport, time.Duration, error) {
	return s.SimContext(context.Background(), draws, showpb)
}

// ctxCheckEvery 每抽幾次檢查一次 ctx
const ctxCheckEvery = 64

// SimContext 同 Sim，ctx 取消或逾時即中止並回傳 ctx 的錯誤。
func (s *Simulator) SimContext(ctx context.Context, draws int, showpb bool) (*stats.InclusionReport, time.Duration, error) {
	defer s.reset()
	if draws < 1 {
		return nil, 0, errs.Invalid("draws must > 0")
	}
	if err := s.prepare(1); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	m := s.mBuf[0]

	bar := pb.StartNew(draws)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < draws; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				bar.Finish()
				return nil, 0, errs.Wrap(err, "simulation aborted")
			}
		}
		x, err := m.DrawInternal()
		if err != nil {
			r.RecordErr(err)
		} else {
			r.Record(x)
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	return r.Done(), used, nil
}

// SimMP 平行執行 mp 台機台，每台抽 draws 次，合併後回傳報表與用時。
//
// 每台機台各自的亂數流獨立，結果只取決於 initSeed 與 mp。
func (s *Simulator) SimMP(draws int, mp int, showpb bool) (*stats.InclusionReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.Invalid("workers must > 0")
	}
	if draws < 1 {
		return nil, 0, errs.Invalid("draws must > 0")
	}
	if err := s.prepare(mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(draws * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			m := s.mBuf[i]
			rec := s.rBuf[i]
			for range draws {
				x, err := m.DrawInternal()
				if err != nil {
					rec.RecordErr(err)
				} else {
					rec.Record(x)
				}
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	rec, err := recorder.MergeInclusionRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	return rec.Done(), used, nil
}

// prepare 補齊 n 台機台與 n 份紀錄
func (s *Simulator) prepare(n int) error {
	for len(s.mBuf) < n {
		s.mBuf = append(s.mBuf, newMachineWithSeed(s.setting, s.seedmaker.next()))
	}
	for len(s.rBuf) < n {
		r, err := recorder.NewInclusionRecorder(s.setting)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆 mix63 打散。
//
// 可能被多 goroutine 同時呼叫（例如 MachinePool 補機），以 CAS 迴圈保證每次取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
