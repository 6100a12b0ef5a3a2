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

package recorder

import (
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/sdk/sampler"
	"github.com/zintix-labs/cbsample/stats"
)

// InclusionRecorder 抽樣紀錄員
//
// 只累積整數計數，透過 Done 輸出統計報表
type InclusionRecorder struct {
	Setting    *plan.Setting
	Expected   []float64 // 精確包含機率；r 不可達時為 nil
	Draws      int
	Failures   int
	Violations int
	Hits       []int // Hits[i] : x_i = 1 的次數
	CountDist  []int // CountDist[k] : Σx = k 的次數
}

func NewInclusionRecorder(s *plan.Setting) (*InclusionRecorder, error) {
	if s == nil || s.Q() == 0 {
		return nil, errs.NewFatal("recorder: empty plan")
	}
	exp, err := sampler.InclusionProbabilities(s.Pi, s.R)
	if err != nil && errs.KindOf(err) != errs.KindUnattainable {
		return nil, errs.Wrap(err, "recorder: inclusion probabilities")
	}
	return newInclusionRecorder(s, exp), nil
}

func newInclusionRecorder(s *plan.Setting, exp []float64) *InclusionRecorder {
	q := s.Q()
	return &InclusionRecorder{
		Setting:   s,
		Expected:  exp,
		Hits:      make([]int, q),
		CountDist: make([]int, q+1),
	}
}

// MergeInclusionRecorder 合併同一計畫的多份紀錄
func MergeInclusionRecorder(r []*InclusionRecorder) (*InclusionRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge inclusion record err : empty input")
	}
	r0 := r[0]
	s := newInclusionRecorder(r0.Setting, r0.Expected)
	for _, v := range r {
		if v.Setting.Name != r0.Setting.Name || v.Setting.ID != r0.Setting.ID {
			return nil, errs.NewFatal("merge inclusion record err : different plan")
		}
		if len(v.Hits) != len(s.Hits) {
			return nil, errs.NewFatal("merge inclusion record err : different q")
		}
		s.Draws += v.Draws
		s.Failures += v.Failures
		s.Violations += v.Violations
		for i, h := range v.Hits {
			s.Hits[i] += h
		}
		for k, c := range v.CountDist {
			s.CountDist[k] += c
		}
	}
	return s, nil
}

// Record 以單次抽樣結果更新計數。
//
// 長度不符同時記為失敗與違規，不進入頻率的分母。
func (s *InclusionRecorder) Record(x []bool) {
	s.Draws++
	if len(x) != len(s.Hits) {
		s.Failures++
		s.Violations++
		return
	}
	k := 0
	for i, b := range x {
		if b {
			s.Hits[i]++
			k++
		}
	}
	s.CountDist[k]++
	if k != s.Setting.R {
		s.Violations++
	}
}

// RecordErr 紀錄一次失敗的抽樣（例如 reject 用盡嘗試次數）
func (s *InclusionRecorder) RecordErr(err error) {
	if err != nil {
		s.Draws++
		s.Failures++
	}
}

// Done 產生報表；Hits 的分母為成功的抽樣數。
func (s *InclusionRecorder) Done() *stats.InclusionReport {
	report := stats.NewInclusionReport(s.Setting, s.Expected)
	report.Summary.Draws = s.Draws - s.Failures
	report.Summary.Failures = s.Failures
	report.Summary.Violations = s.Violations
	for i, h := range s.Hits {
		report.Positions[i].Hits = h
	}
	copy(report.CountDist, s.CountDist)
	report.Done()
	return report
}
