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

package sampler

import (
	"fmt"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/sdk/core"
	"github.com/zintix-labs/cbsample/sdk/xfloat"
)

// Phase 是 ExactSampler 的狀態
type Phase uint8

const (
	// PhaseWindowBoundary : 目前位置超出已算好的視窗，需重算反向表
	PhaseWindowBoundary Phase = iota
	// PhaseInWindow : 目前位置仍在視窗內，沿用上一列推進
	PhaseInWindow
)

func (p Phase) String() string {
	switch p {
	case PhaseWindowBoundary:
		return "window_boundary"
	case PhaseInWindow:
		return "in_window"
	default:
		return "unknown"
	}
}

// ExactSampler 以兩狀態機逐位置抽出條件伯努利樣本。
//
// 設 i 為目前位置、N 為位置 0..i-1 已抽出的 1 的個數：
//
//	WindowBoundary (i > windowEnd)：
//	    以 tail = i 重算反向表，windowEnd = i + h - 1
//	    P(x_i = 1) = pi[i]·B_i[N+1] / ( (1-pi[i])·B_i[N] + pi[i]·B_i[N+1] )
//	InWindow：
//	    推進到下一列
//	    P(x_i = 1) = pi[i]·B_i[N+1] / B_{i-1}[N]
//
// 兩種狀態算出的是同一個條件機率（只差捨入），因此 h 只影響時間與記憶體，不影響結果。
// 每個位置恰好消耗一個 Float64 亂數，抽樣規則為 u < p。
type ExactSampler struct {
	core       *core.Core
	pi         []float64
	r          int
	h          int
	table      *BackwardTable
	slot       int
	windowEnd  int
	idx        int
	ones       int
	out        []bool
	recomputes int
}

// NewExactSampler 驗證參數並建立狀態機。
//
// 錯誤：
//   - InvalidArgument : r 不在 [0,q]、h 不在 [2,q] (h > 0 時)、pi 不在 [0,1]
//   - Unattainable    : 在 pi 下不可能剛好 r 個 1
func NewExactSampler(c *core.Core, pi []float64, r, h int) (*ExactSampler, error) {
	if err := needCore(c); err != nil {
		return nil, err
	}
	if err := validate(pi, r); err != nil {
		return nil, err
	}
	h, err := resolveWindow(len(pi), h)
	if err != nil {
		return nil, err
	}
	if err := checkFeasible(pi, r); err != nil {
		return nil, err
	}
	s := &ExactSampler{
		core:      c,
		pi:        pi,
		r:         r,
		h:         h,
		windowEnd: -1,
		out:       make([]bool, 0, len(pi)),
	}
	if len(pi) > 0 {
		s.table = NewBackwardTable(h, r)
	}
	return s, nil
}

// Phase 回傳下一次 Step 會走的狀態。
func (s *ExactSampler) Phase() Phase {
	if s.idx > s.windowEnd {
		return PhaseWindowBoundary
	}
	return PhaseInWindow
}

func (s *ExactSampler) Done() bool { return s.idx >= len(s.pi) }

// Index 下一個要抽的位置
func (s *ExactSampler) Index() int { return s.idx }

// Ones 目前已抽出的 1 的個數
func (s *ExactSampler) Ones() int { return s.ones }

// Window 實際使用的視窗大小
func (s *ExactSampler) Window() int { return s.h }

// Recomputes 反向表重算次數
func (s *ExactSampler) Recomputes() int { return s.recomputes }

// Step 抽出目前位置的值並前進一格。
func (s *ExactSampler) Step() (bool, error) {
	if s.Done() {
		return false, errs.Invalid("sampler: exact sampler already drew all %d positions", len(s.pi))
	}
	i, n := s.idx, s.ones
	p := xfloat.MustFromFloat64(s.pi[i])

	var (
		prob xfloat.XFloat
		err  error
	)
	switch s.Phase() {
	case PhaseWindowBoundary:
		s.slot = s.table.Compute(s.pi, i)
		s.windowEnd = i + s.h - 1
		s.recomputes++
		one := p.Mul(s.table.At(s.slot, n+1))
		zero := xfloat.MustFromFloat64(1 - s.pi[i]).Mul(s.table.At(s.slot, n))
		prob, err = one.Quo(zero.Add(one))
	case PhaseInWindow:
		prev := s.slot
		s.slot = s.table.Next(prev)
		prob, err = p.Mul(s.table.At(s.slot, n+1)).Quo(s.table.At(prev, n))
	}
	if err != nil {
		return false, errs.Wrap(err, fmt.Sprintf("sampler: exact draw at position %d with %d cases so far", i, n))
	}

	bit := s.core.Bernoulli(prob.Float64())
	if bit {
		s.ones++
	}
	s.out = append(s.out, bit)
	s.idx++
	return bit, nil
}

// Run 抽完剩下的位置並回傳完整結果。
func (s *ExactSampler) Run() ([]bool, error) {
	for !s.Done() {
		if _, err := s.Step(); err != nil {
			return nil, err
		}
	}
	return s.out, nil
}

// SampleExact 回傳長度 q、恰有 r 個 true 的精確條件伯努利樣本。
//
// h <= 0 時使用 h = q（只算一次反向表）。
func SampleExact(c *core.Core, pi []float64, r, h int) ([]bool, error) {
	s, err := NewExactSampler(c, pi, r, h)
	if err != nil {
		return nil, err
	}
	return s.Run()
}
