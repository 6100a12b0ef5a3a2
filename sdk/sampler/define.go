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

// Package sampler 提供「條件伯努利」(conditional Bernoulli) 抽樣。
//
// 給定 q 個位置、每個位置的邊際機率 pi[i]，以及目標 case 數 r，
// 抽出一組 0/1 標籤 x，使 Σx = r，且分佈等同於
// 「獨立伯努利(pi) 在條件 Σx = r 之下」的條件分佈。
//
// 三種方法：
//   - Exact  : 視窗化的反向遞迴表 + 延伸精度數值，精確抽樣
//   - MCMC   : Metropolis 交換鏈，burn-in 有限時為近似抽樣
//   - Reject : 重複抽獨立伯努利直到剛好 r 個 1，受 maxAttempts 限制
//
// 所有方法都從外部注入 *core.Core，不使用任何全域亂數來源；
// 相同 seed 相同參數必得相同結果。
package sampler

import (
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/sdk/core"
)

// Method 抽樣方法
type Method uint8

const (
	MethodExact Method = iota
	MethodMCMC
	MethodReject
)

var methodNames = [...]string{
	MethodExact:  "exact",
	MethodMCMC:   "mcmc",
	MethodReject: "reject",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

// ParseMethod 由名稱 (exact / mcmc / reject) 取得 Method。
func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, errs.Invalid("sampler: unknown method %q", name)
}

func (m Method) MarshalText() ([]byte, error) {
	if int(m) >= len(methodNames) {
		return nil, errs.Invalid("sampler: unknown method %d", m)
	}
	return []byte(methodNames[m]), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Params 一次抽樣所需的全部參數
//
//   - Pi          : 每個位置的邊際機率，皆需在 [0,1]
//   - R           : 目標 case 數
//   - Window      : Exact 的視窗大小 h，<= 0 代表 h = q
//   - Burnin      : MCMC 迭代次數
//   - MaxAttempts : Reject 的嘗試上限，<= 0 代表 DefaultMaxAttempts
type Params struct {
	Pi          []float64
	R           int
	Window      int
	Burnin      int
	MaxAttempts int
}

// Sample 依方法分派到對應的抽樣器。
func Sample(c *core.Core, m Method, p Params) ([]bool, error) {
	switch m {
	case MethodExact:
		return SampleExact(c, p.Pi, p.R, p.Window)
	case MethodMCMC:
		return SampleMCMC(c, p.Pi, p.R, p.Burnin)
	case MethodReject:
		return SampleRejection(c, p.Pi, p.R, p.MaxAttempts)
	default:
		return nil, errs.Invalid("sampler: unknown method %d", m)
	}
}

// Count 回傳 x 中 true 的數量。
func Count(x []bool) int {
	n := 0
	for _, b := range x {
		if b {
			n++
		}
	}
	return n
}
