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
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

// Runtime 對外服務的資料面：每份計畫一個 MachinePool。
type Runtime struct {
	lab *Lab

	pools  map[plan.PID]*MachinePool
	byName map[string]plan.PID
	ids    []plan.PID // 固定順序，用於觀測/列舉

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	poolSize int
}

func newRuntime(l *Lab, ids []plan.PID, poolSize int) *Runtime {
	rt := &Runtime{
		lab:      l,
		pools:    make(map[plan.PID]*MachinePool, len(ids)),
		byName:   make(map[string]plan.PID, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")
	return rt
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve 以計畫 ID 找機台池；請求只帶名稱（pid 為 0 且 0 未註冊）時以名稱查找。
func (rt *Runtime) Resolve(req *dto.DrawRequest) (*MachinePool, bool) {
	if mp, ok := rt.pools[req.PlanID]; ok {
		return mp, true
	}
	if req.PlanID == 0 && req.PlanName != "" {
		if id, ok := rt.byName[normName(req.PlanName)]; ok {
			req.PlanID = id
			return rt.pools[id], true
		}
	}
	return nil, false
}

func (rt *Runtime) Draw(ctx context.Context, req *dto.DrawRequest) (dto.DrawResult, error) {
	select {
	case <-ctx.Done():
		return dto.DrawResult{}, errs.NewWarn("draw canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		rt.closed.Store(true)
		return dto.DrawResult{}, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	if req == nil {
		return dto.DrawResult{}, errs.Invalid("nil draw request")
	}

	mp, ok := rt.Resolve(req)
	if !ok {
		return dto.DrawResult{}, errs.Invalid("plan not found: id=%d name=%q", req.PlanID, req.PlanName)
	}
	return mp.Draw(ctx, req)
}

// IDs 所有計畫 ID（已排序）
func (rt *Runtime) IDs() []plan.PID {
	return append([]plan.PID(nil), rt.ids...)
}

func (rt *Runtime) PoolSize() int { return rt.poolSize }

// Metrics 依 IDs 順序回傳所有機台池的觀測快照。
func (rt *Runtime) Metrics() []MachinePoolMetrics {
	out := make([]MachinePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		out = append(out, rt.pools[id].Metrics())
	}
	return out
}

// Close 關閉 runtime 與所有機台池，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, mp := range rt.pools {
			mp.closeWithReason(reason)
		}
		rt.lab.log.Info("runtime closed", slog.String("reason", reason))
	})
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
