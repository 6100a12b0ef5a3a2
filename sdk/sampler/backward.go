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
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/sdk/xfloat"
)

// BackwardTable 是 Exact 抽樣用的反向遞迴表，h 列 × (r+2) 欄，列以環狀方式重用。
//
// 定義 B_i[m] = P( Σ_{k=i+1}^{q-1} x_k = r - m )，m 為位置 0..i 已抽出的 1 的個數。
//
// 遞迴：
//
//	B_{q-1}[m] = 1 若 m == r，否則 0
//	B_i[m]     = pi[i+1]·B_{i+1}[m+1] + (1-pi[i+1])·B_{i+1}[m]
//
// 第 r+1 欄恆為 0，讓 m == r 時讀取 m+1 不需要額外判斷。
//
// 記憶體為 O(h·r)；h 越小越省記憶體，但需要越頻繁地重算（每 h 個位置一次，每次 O((q-j)·r)）。
type BackwardTable struct {
	rows  int
	width int
	r     int
	cells []xfloat.XFloat
}

// NewBackwardTable 配置 h 列、目標 r 的表，內容需經 Compute 才有意義。
func NewBackwardTable(h, r int) *BackwardTable {
	return &BackwardTable{
		rows:  h,
		width: r + 2,
		r:     r,
		cells: make([]xfloat.XFloat, h*(r+2)),
	}
}

// ComputeWindow 驗證參數、配置並計算以 tail 為起點的視窗，回傳表與 head 列。
//
// h <= 0 代表 h = q。
func ComputeWindow(pi []float64, r, h, tail int) (*BackwardTable, int, error) {
	if err := validate(pi, r); err != nil {
		return nil, 0, err
	}
	h, err := resolveWindow(len(pi), h)
	if err != nil {
		return nil, 0, err
	}
	if len(pi) == 0 || tail < 0 || tail >= len(pi) {
		return nil, 0, errs.Invalid("sampler: tail=%d out of [0,%d)", tail, len(pi))
	}
	t := NewBackwardTable(h, r)
	return t, t.Compute(pi, tail), nil
}

// Compute 從位置 q-1 反向算到 tail，回傳存放 B_tail 的列 head。
//
// 完成後 (head+k) mod h 列存放 B_{tail+k}，0 <= k < h 且 tail+k <= q-1。
// 呼叫端需保證 pi 已驗證、tail ∈ [0,q)。
func (t *BackwardTable) Compute(pi []float64, tail int) int {
	clear(t.cells)
	cur := t.rows - 1
	t.row(cur)[t.r] = xfloat.One()

	for i := len(pi) - 2; i >= tail; i-- {
		prev := cur
		cur = (cur - 1 + t.rows) % t.rows

		p := xfloat.MustFromFloat64(pi[i+1])
		np := xfloat.MustFromFloat64(1 - pi[i+1])
		src, dst := t.row(prev), t.row(cur)
		for m := 0; m <= t.r; m++ {
			dst[m] = xfloat.MulAdd(src[m].Mul(np), p, src[m+1])
		}
	}
	return cur
}

func (t *BackwardTable) row(slot int) []xfloat.XFloat {
	return t.cells[slot*t.width : (slot+1)*t.width]
}

// At 回傳第 slot 列第 m 欄。
func (t *BackwardTable) At(slot, m int) xfloat.XFloat {
	return t.cells[slot*t.width+m]
}

// Next 回傳環狀下一列。
func (t *BackwardTable) Next(slot int) int {
	return (slot + 1) % t.rows
}

func (t *BackwardTable) Rows() int { return t.rows }

func (t *BackwardTable) Width() int { return t.width }
