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
	"github.com/zintix-labs/cbsample/sdk/core"
)

// SampleMCMC 以 Metropolis 交換鏈近似抽樣。
//
// 初始狀態：前 r 個位置為 case，其餘為 control。
// 每次迭代均勻選一個 control i0 與一個 case i1，以
//
//	alpha = pi[i0]·(1-pi[i1]) / ( pi[i1]·(1-pi[i0]) )
//
// 的機率交換兩者。任何時刻 case 數恆為 r。
//
// r == 0 或 r == q 時沒有可交換的組合，直接回傳初始狀態。
// burnin 有限時結果只是近似分佈。
func SampleMCMC(c *core.Core, pi []float64, r, burnin int) ([]bool, error) {
	if err := needCore(c); err != nil {
		return nil, err
	}
	if err := validate(pi, r); err != nil {
		return nil, err
	}
	if burnin < 0 {
		return nil, errs.Invalid("sampler: burnin=%d must be >= 0", burnin)
	}

	q := len(pi)
	out := make([]bool, q)
	cases := make([]int, r)
	controls := make([]int, 0, q-r)
	for i := range q {
		if i < r {
			out[i] = true
			cases[i] = i
			continue
		}
		controls = append(controls, i)
	}
	if r == 0 || r == q {
		return out, nil
	}

	for range burnin {
		a := c.IntN(len(controls))
		b := c.IntN(len(cases))
		i0, i1 := controls[a], cases[b]
		if c.Bernoulli(swapRatio(pi[i0], pi[i1])) {
			controls[a], cases[b] = i1, i0
			out[i0], out[i1] = true, false
		}
	}
	return out, nil
}

// swapRatio : 分母為 0 時，分子 > 0 視為必收，0/0 視為拒絕。
func swapRatio(in, out float64) float64 {
	num := in * (1 - out)
	den := out * (1 - in)
	if den == 0 {
		if num > 0 {
			return 1
		}
		return 0
	}
	return num / den
}
