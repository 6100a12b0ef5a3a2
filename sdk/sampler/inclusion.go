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
	"github.com/zintix-labs/cbsample/sdk/xfloat"
)

// InclusionProbabilities 精確計算 P(x_i = 1 | Σx = r)。
//
// 前向 F_i[k] = P(Σ_{j<i} x_j = k) 與完整反向表 (h = q) 相乘：
//
//	P(x_i = 1, Σx = r) = Σ_k F_i[k]·pi[i]·B_i[k+1]
//
// 分母為 P(Σx = r)。時間 O(q·r)，記憶體 O(q·r)，供報表的期望值欄位使用。
func InclusionProbabilities(pi []float64, r int) ([]float64, error) {
	if err := validate(pi, r); err != nil {
		return nil, err
	}
	if err := checkFeasible(pi, r); err != nil {
		return nil, err
	}
	q := len(pi)
	out := make([]float64, q)
	if q == 0 {
		return out, nil
	}

	t := NewBackwardTable(q, r)
	head := t.Compute(pi, 0)

	fwd := make([]xfloat.XFloat, r+1)
	fwd[0] = xfloat.One()
	for i := range q {
		p := xfloat.MustFromFloat64(pi[i])
		np := xfloat.MustFromFloat64(1 - pi[i])
		slot := (head + i) % q

		var num, den xfloat.XFloat
		for k, f := range fwd {
			if f.IsZero() {
				continue
			}
			one := f.Mul(p).Mul(t.At(slot, k+1))
			num = num.Add(one)
			den = xfloat.MulAdd(den.Add(one), f.Mul(np), t.At(slot, k))
		}
		v, err := num.Quo(den)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("sampler: inclusion probability at position %d", i))
		}
		out[i] = v.Float64()

		for k := r; k >= 0; k-- {
			f := fwd[k].Mul(np)
			if k > 0 {
				f = xfloat.MulAdd(f, fwd[k-1], p)
			}
			fwd[k] = f
		}
	}
	return out, nil
}
