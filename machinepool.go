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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

// MachinePool 管理「某一份計畫」的所有機台實例。
// 它透過兩個通道管理機台生命週期：
//  1. pool：健康且可用的機台，供 Draw() 借出 / 歸還。
//  2. broken：運作中 panic 或回傳 fatal 錯誤的壞機台，送往此通道以便後續檢查或丟棄。
//
// 壞機台會立即補上一台新機以維持容量。
type MachinePool struct {
	planName      string
	planID        plan.PID
	setting       *plan.Setting
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan *Machine // 可用機台
	broken        chan *Machine // 壞掉機台
	done          chan struct{} // 關閉訊號：關閉後不再允許借機/歸還/補機
	closeOnce     sync.Once
	poolsize      int
	rebuild       atomic.Int32 // 重建機台次數
	inflight      atomic.Int32 // 使用中
	draws         atomic.Int64 // 成功抽樣次數
	failures      atomic.Int64 // 非致命失敗次數（例如 reject 用盡嘗試）
	panics        atomic.Int32 // panic 次數
	fatals        atomic.Int32 // fatal 次數（機台狀態不可信）
	closeReason   atomic.Value // string: 關閉原因
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32 // 關閉當下 len(pool)
	closeBroken   atomic.Int32 // 關閉當下 len(broken)
}

// newMachinePool 建立指定計畫的機台池，n 至少為 1，預先建立 n 台機台。
func newMachinePool(n int, s *plan.Setting, seed int64) *MachinePool {
	n = max(1, n)
	p := &MachinePool{
		planName:  s.Name,
		planID:    s.ID,
		setting:   s,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Machine, n),
		broken:    make(chan *Machine, 100),
		done:      make(chan struct{}),
		poolsize:  n,
	}

	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- newMachineWithSeed(s, p.seedMaker.next())
	}
	return p
}

// Close 進入關閉狀態，之後所有 Draw() 直接回錯誤。
func (p *MachinePool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *MachinePool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（reason 只會被寫入一次）。
func (p *MachinePool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 判斷本次錯誤是否代表「機台狀態不可信」。
//
// 抽樣器的參數/不可達/迭代上限錯誤都是 Warn，不會淘汰機台。
func isFatalErr(err error) bool {
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return false
}

func (p *MachinePool) Draw(ctx context.Context, req *dto.DrawRequest) (res dto.DrawResult, err error) {
	var m *Machine
	select {
	case <-p.done:
		return res, errs.NewFatal("machine pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return res, errs.NewWarn("draw canceled/timeout: " + ctx.Err().Error())
	case m = <-p.pool:
		p.inflight.Add(1)
	}

	if m == nil {
		return res, errs.NewFatal("machine pool got nil machine")
	}

	var isPanic bool

	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("machine %s panic : %v", m.planName, r))
		}
		switch {
		case err == nil:
			p.draws.Add(1)
		case !isPanic && !isFatalErr(err):
			p.failures.Add(1)
		}

		// 已關閉：直接丟棄機台
		if p.Closed() {
			return
		}

		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- m:
			default:
				// broken 滿代表正在連續故障：關閉讓上層接管
				p.closeWithReason("overwhelmed_by_failures")
				return
			}

			nm := newMachineWithSeed(p.setting, p.seedMaker.next())
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- nm:
			}
			return
		}

		// 非致命錯誤：機台仍健康，歸還並原樣回傳 err
		select {
		case <-p.done:
		case p.pool <- m:
		}
	}()

	return m.Draw(req)
}

func (mp *MachinePool) PoolSize() int {
	return mp.poolsize
}

func (mp *MachinePool) Inflight() int {
	return int(mp.inflight.Load())
}

func (mp *MachinePool) ReBuild() int {
	return int(mp.rebuild.Load())
}

func (mp *MachinePool) ClosedReason() string {
	if v := mp.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (mp *MachinePool) Panics() int {
	return int(mp.panics.Load())
}

func (mp *MachinePool) Fatals() int {
	return int(mp.fatals.Load())
}

// MachinePoolMetrics 拉取式觀測快照。
//
// Available / BrokenBacklog 來自 len(chan)，高併發下是近似值。
type MachinePoolMetrics struct {
	PlanName string   `json:"plan_name"`
	PlanID   plan.PID `json:"plan_id"`

	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Draws         int64  `json:"draws"`
	Failures      int64  `json:"failures"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"` // -1 表示尚未關閉
	CloseAvail    int `json:"close_avail"`    // -1 表示尚未關閉
	CloseBroken   int `json:"close_broken"`   // -1 表示尚未關閉
}

func (mp *MachinePool) Metrics() MachinePoolMetrics {
	return MachinePoolMetrics{
		PlanName:      mp.planName,
		PlanID:        mp.planID,
		PoolSize:      mp.poolsize,
		Available:     len(mp.pool),
		Inflight:      int(mp.inflight.Load()),
		BrokenBacklog: len(mp.broken),
		Draws:         mp.draws.Load(),
		Failures:      mp.failures.Load(),
		Rebuild:       int(mp.rebuild.Load()),
		Panics:        int(mp.panics.Load()),
		Fatals:        int(mp.fatals.Load()),
		Closed:        mp.Closed(),
		CloseReason:   mp.ClosedReason(),
		CloseInflight: int(mp.closeInflight.Load()),
		CloseAvail:    int(mp.closeAvail.Load()),
		CloseBroken:   int(mp.closeBroken.Load()),
	}
}

// Available 回傳當下 pool 可用機台數，高併發下為近似值。
func (mp *MachinePool) Available() int {
	return len(mp.pool)
}
