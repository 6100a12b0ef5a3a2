package dto

import (
	"github.com/zintix-labs/cbsample/corefmt"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/sdk/sampler"
)

// DrawResult 單次抽樣的對外結果
type DrawResult struct {
	PlanName string         `json:"plan"`       // 計畫名稱
	PlanID   plan.PID       `json:"pid"`        // 計畫編號
	Method   sampler.Method `json:"method"`     // 抽樣方法
	Q        int            `json:"q"`          // 位置數
	R        int            `json:"r"`          // 目標 case 數
	Cases    []int          `json:"cases"`      // x_i = 1 的位置，遞增
	State    DrawState      `json:"draw_state"` // PRNG 快照
}

// DrawState 抽樣前後的 PRNG 快照（Base64URL）。
//
// 以 start_b64u 重送同一計畫，必得相同 Cases；after_b64u 可作為下一次的 start 以延續亂數流。
type DrawState struct {
	StartCoreSnapB64U string `json:"start_b64u"`
	AfterCoreSnapB64U string `json:"after_b64u"`
}

func NewDrawResult(s *plan.Setting, x []bool, start, after []byte) DrawResult {
	cases := make([]int, 0, s.R)
	for i, b := range x {
		if b {
			cases = append(cases, i)
		}
	}
	return DrawResult{
		PlanName: s.Name,
		PlanID:   s.ID,
		Method:   s.SamplerMethod(),
		Q:        s.Q(),
		R:        s.R,
		Cases:    cases,
		State: DrawState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
		},
	}
}

// Labels 還原成長度 Q 的 0/1 標籤
func (d DrawResult) Labels() []bool {
	x := make([]bool, d.Q)
	for _, i := range d.Cases {
		if i >= 0 && i < d.Q {
			x[i] = true
		}
	}
	return x
}
