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

// DefaultMaxAttempts Reject 預設嘗試上限
const DefaultMaxAttempts = 1_000_000

// SampleRejection 重複抽 q 個獨立伯努利，直到剛好 r 個 1。
//
// 期望嘗試次數為 1 / P(Σx = r)，r 偏離 Σpi 時會急遽上升。
// 用盡 maxAttempts 回傳 IterationLimitExceeded；r 不可能達成時直接回傳 Unattainable。
func SampleRejection(c *core.Core, pi []float64, r, maxAttempts int) ([]bool, error) {
	if err := needCore(c); err != nil {
		return nil, err
	}
	if err := validate(pi, r); err != nil {
		return nil, err
	}
	if err := checkFeasible(pi, r); err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	out := make([]bool, len(pi))
	for range maxAttempts {
		n := 0
		for i, p := range pi {
			out[i] = c.Bernoulli(p)
			if out[i] {
				n++
			}
		}
		if n == r {
			return out, nil
		}
	}
	return nil, errs.IterationLimit("sampler: no draw with exactly %d cases in %d attempts", r, maxAttempts)
}
