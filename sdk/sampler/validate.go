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
	"math"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/sdk/core"
)

func validate(pi []float64, r int) error {
	if r < 0 || r > len(pi) {
		return errs.Invalid("sampler: r=%d out of [0,%d]", r, len(pi))
	}
	for i, p := range pi {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return errs.Invalid("sampler: pi[%d]=%v out of [0,1]", i, p)
		}
	}
	return nil
}

func needCore(c *core.Core) error {
	if c == nil {
		return errs.Invalid("sampler: nil core")
	}
	return nil
}

// resolveWindow : h <= 0 取 q；否則需 2 <= h <= q。
func resolveWindow(q, h int) (int, error) {
	if h <= 0 {
		return q, nil
	}
	if h < 2 || h > q {
		return 0, errs.Invalid("sampler: window h=%d out of [2,%d]", h, q)
	}
	return h, nil
}

// Feasible 回報在 pi 下是否可能剛好抽出 r 個 case。
//
// 充要條件：pi == 1 的位置數 <= r <= pi > 0 的位置數。
func Feasible(pi []float64, r int) bool {
	sure, possible := 0, 0
	for _, p := range pi {
		if p >= 1 {
			sure++
		}
		if p > 0 {
			possible++
		}
	}
	return sure <= r && r <= possible
}

func checkFeasible(pi []float64, r int) error {
	if !Feasible(pi, r) {
		return errs.Unattainable("sampler: exactly %d cases impossible among %d positions", r, len(pi))
	}
	return nil
}
