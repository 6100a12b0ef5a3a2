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

package plan

import (
	"math"

	"github.com/zintix-labs/cbsample/errs"
)

// Profile 以少量參數產生長度 Q 的 pi，避免在設定檔內手寫大量數字。
//
//	constant : pi[i] = Low
//	linear   : Low 線性插值到 High
//	logistic : Low..High 之間的 S 形曲線，Steep 控制陡峭度（預設 8）
//	periodic : Values 依序循環填滿
type Profile struct {
	Kind   string    `yaml:"kind"   json:"kind"`
	Q      int       `yaml:"q"      json:"q"`
	Low    float64   `yaml:"low"    json:"low"`
	High   float64   `yaml:"high"   json:"high"`
	Steep  float64   `yaml:"steep"  json:"steep"`
	Values []float64 `yaml:"values" json:"values"`
}

func (p *Profile) Expand() ([]float64, error) {
	if p.Q <= 0 {
		return nil, errs.Invalid("profile: q=%d must be > 0", p.Q)
	}
	pi := make([]float64, p.Q)
	span := float64(max(p.Q-1, 1))
	switch p.Kind {
	case "constant":
		for i := range pi {
			pi[i] = p.Low
		}
	case "linear":
		for i := range pi {
			pi[i] = p.Low + (p.High-p.Low)*float64(i)/span
		}
	case "logistic":
		k := p.Steep
		if k == 0 {
			k = 8
		}
		for i := range pi {
			x := float64(i)/span - 0.5
			pi[i] = p.Low + (p.High-p.Low)/(1+math.Exp(-k*x))
		}
	case "periodic":
		if len(p.Values) == 0 {
			return nil, errs.Invalid("profile: periodic needs values")
		}
		for i := range pi {
			pi[i] = p.Values[i%len(p.Values)]
		}
	default:
		return nil, errs.Invalid("profile: unknown kind %q", p.Kind)
	}
	return pi, nil
}
