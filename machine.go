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
	"sync"

	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/sdk/core"
	"github.com/zintix-labs/cbsample/sdk/sampler"
)

// Machine 封裝一台「可對外提供 Draw」的抽樣機台。
//
//   - 對外：提供 Draw 入口（HTTP/模擬器通常只操作 Machine）。
//   - 對內：持有 RNG（Core）與計畫參數，依計畫方法呼叫 sampler。
//
// 同一台 Machine 內部以鎖保護 Core，若要併發請建立多台 Machine（見 MachinePool）。
type Machine struct {
	planName string          // 計畫名稱（主要用於觀測/日誌）
	planID   plan.PID        // 計畫 ID（Catalog 內唯一）
	setting  *plan.Setting   // 計畫設定（只讀）
	params   sampler.Params  // 由 setting 轉出的抽樣參數
	method   sampler.Method  // 抽樣方法
	core     *core.Core      // RNG 核心
	mu       sync.Mutex      // 保護 core 狀態一致性
	initseed int64           // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// newMachine 以 crypto/rand 產生的 seed 建立 Machine。
func newMachine(s *plan.Setting) (*Machine, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(s, seed), nil
}

// newMachineWithSeed 同一份 Setting + 同一個 seed，必得相同的抽樣序列。
func newMachineWithSeed(s *plan.Setting, seed int64) *Machine {
	return &Machine{
		planName: s.Name,
		planID:   s.ID,
		setting:  s,
		params:   s.Params(),
		method:   s.SamplerMethod(),
		core:     core.New(s.Factory().New(seed)),
		initseed: seed,
	}
}

// Draw 為主要公開入口：驗證請求、必要時從 start 快照回放，回傳結果與前後快照。
//
// 帶 start_b64u 的請求不會推進機台本身的亂數流：抽完後 Core 會還原。
func (m *Machine) Draw(r *dto.DrawRequest) (dto.DrawResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 校驗請求
	if err := m.valid(r); err != nil {
		return dto.DrawResult{}, err
	}
	start, err := r.StartSnap()
	if err != nil {
		return dto.DrawResult{}, err
	}

	// 2. start 快照
	rem, err := m.core.Snapshot()
	if err != nil {
		return dto.DrawResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	replay := len(start) != 0
	if replay {
		if err := m.core.Restore(start); err != nil {
			return dto.DrawResult{}, errs.Invalid("restore core err %v", err)
		}
	} else {
		start = rem
	}

	// 3. 抽樣
	x, drawErr := sampler.Sample(m.core, m.method, m.params)

	// 4. after 快照
	after, err := m.core.Snapshot()
	if err != nil {
		if e := m.core.Restore(rem); e != nil {
			return dto.DrawResult{}, errs.NewFatal("fall back err " + e.Error())
		}
		return dto.DrawResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 5. 回放不影響機台本身
	if replay {
		if err := m.core.Restore(rem); err != nil {
			return dto.DrawResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}
	if drawErr != nil {
		return dto.DrawResult{}, errs.WrapWithExtra(drawErr, "draw failed", m.planName)
	}

	return dto.NewDrawResult(m.setting, x, start, after), nil
}

// DrawInternal 直接回傳 0/1 標籤，跳過請求檢查與快照；常用於模擬器或測試。
func (m *Machine) DrawInternal() ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sampler.Sample(m.core, m.method, m.params)
}

func (m *Machine) valid(req *dto.DrawRequest) error {
	if req == nil {
		return errs.Invalid("nil draw request")
	}
	if m.planID != req.PlanID {
		return errs.Invalid("plan id is not matched")
	}
	if req.PlanName != "" && normName(m.planName) != normName(req.PlanName) {
		return errs.Invalid("plan name is not matched")
	}
	return nil
}

func (m *Machine) PlanName() string { return m.planName }

func (m *Machine) PlanID() plan.PID { return m.planID }

// Setting 回傳計畫設定，呼叫端不可修改
func (m *Machine) Setting() *plan.Setting { return m.setting }

func (m *Machine) InitSeed() int64 { return m.initseed }

// SnapshotCore 取得 Core 狀態
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態
func (m *Machine) RestoreCore(src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Restore(src)
}
