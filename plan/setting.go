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

// Package plan 定義抽樣計畫 (Setting) 與其 YAML/JSON 設定檔格式。
//
// 一份計畫描述：哪些位置、各自的邊際機率、要抽幾個 case、用哪種方法。
package plan

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/sdk/core"
	"github.com/zintix-labs/cbsample/sdk/sampler"
)

// PID : 計畫編號，同一個 Lab 內唯一
type PID uint

// DefaultBurninFactor MCMC 未指定 burnin 時使用 factor·q
const DefaultBurninFactor = 10

type Setting struct {
	Name        string    `yaml:"name"         json:"name"`
	ID          PID       `yaml:"id"           json:"id"`
	Method      string    `yaml:"method"       json:"method"`       // exact / mcmc / reject，空字串為 exact
	PRNG        string    `yaml:"prng"         json:"prng"`         // pcg64 / pcg32，空字串為 pcg64
	Pi          []float64 `yaml:"pi"           json:"pi"`           // 與 profile 二擇一
	Profile     *Profile  `yaml:"profile"      json:"profile"`      // 以參數產生 pi
	R           int       `yaml:"r"            json:"r"`            // 目標 case 數
	Window      int       `yaml:"window"       json:"window"`       // exact 視窗，0 為 q
	Burnin      int       `yaml:"burnin"       json:"burnin"`       // mcmc 迭代數，0 為 DefaultBurninFactor·q
	MaxAttempts int       `yaml:"max_attempts" json:"max_attempts"` // reject 嘗試上限，0 為預設

	method sampler.Method
}

// init 套用預設值、展開 profile 並檢查，只能在解碼後呼叫一次。
func (s *Setting) init() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Method = strings.ToLower(strings.TrimSpace(s.Method))
	if s.Method == "" {
		s.Method = sampler.MethodExact.String()
	}
	m, err := sampler.ParseMethod(s.Method)
	if err != nil {
		return errs.WrapWithExtra(err, "plan: bad method", s.Name)
	}
	s.method = m

	if s.Profile != nil {
		if len(s.Pi) != 0 {
			return errs.Fatalf("plan %s: pi and profile are mutually exclusive", s.Name)
		}
		pi, err := s.Profile.Expand()
		if err != nil {
			return errs.WrapWithExtra(err, "plan: bad profile", s.Name)
		}
		s.Pi = pi
	}
	if s.method == sampler.MethodMCMC && s.Burnin == 0 {
		s.Burnin = DefaultBurninFactor * len(s.Pi)
	}
	return s.valid()
}

func (s *Setting) valid() error {
	if s.Name == "" {
		return errs.NewFatal("plan: name required")
	}
	if len(s.Pi) == 0 {
		return errs.Fatalf("plan %s: empty pi", s.Name)
	}
	if _, ok := core.FactoryByName(s.PRNG); !ok {
		return errs.Fatalf("plan %s: unknown prng %q", s.Name, s.PRNG)
	}
	if s.Burnin < 0 {
		return errs.Fatalf("plan %s: negative burnin", s.Name)
	}
	if s.method == sampler.MethodExact && s.Window != 0 && (s.Window < 2 || s.Window > len(s.Pi)) {
		return errs.Fatalf("plan %s: window %d out of [2,%d]", s.Name, s.Window, len(s.Pi))
	}
	if s.R < 0 || s.R > len(s.Pi) {
		return errs.Fatalf("plan %s: r=%d out of [0,%d]", s.Name, s.R, len(s.Pi))
	}
	for i, p := range s.Pi {
		if !(p >= 0 && p <= 1) {
			return errs.Fatalf("plan %s: pi[%d]=%v out of [0,1]", s.Name, i, p)
		}
	}
	if s.method != sampler.MethodMCMC && !sampler.Feasible(s.Pi, s.R) {
		return errs.Fatalf("plan %s: r=%d unattainable under pi", s.Name, s.R)
	}
	return nil
}

// SamplerMethod 解析後的抽樣方法
func (s *Setting) SamplerMethod() sampler.Method { return s.method }

// Q 位置數
func (s *Setting) Q() int { return len(s.Pi) }

// Factory 依 prng 欄位取得 PRNGFactory；未知名稱在 init 時已被拒絕。
func (s *Setting) Factory() core.PRNGFactory {
	f, _ := core.FactoryByName(s.PRNG)
	return f
}

// Params 轉成抽樣器參數。Pi 共用底層陣列，抽樣器不會修改它。
func (s *Setting) Params() sampler.Params {
	return sampler.Params{
		Pi:          s.Pi,
		R:           s.R,
		Window:      s.Window,
		Burnin:      s.Burnin,
		MaxAttempts: s.MaxAttempts,
	}
}

func (s *Setting) String() string {
	return fmt.Sprintf("plan(%d:%s method=%s q=%d r=%d)", s.ID, s.Name, s.Method, len(s.Pi), s.R)
}
