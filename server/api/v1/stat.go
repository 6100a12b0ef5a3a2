package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/recorder"
	"github.com/zintix-labs/cbsample/server/httperr"
)

const maxStatDraws = 200_000

// StatRequest 外部抽樣結果的稽核：每筆為被選中的位置索引（0-based）。
type StatRequest struct {
	PID    plan.PID `json:"pid"`
	Plan   string   `json:"plan"`
	Draws  [][]int  `json:"draws"`
	Render string   `json:"render"`
}

// Stat 以計畫的理論包含機率檢驗一批外部抽樣結果。
func (h *Handler) Stat(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	req := new(StatRequest)
	r.Body = http.MaxBytesReader(w, r.Body, 32<<20)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Invalid("invalid json: %v", err))
		return
	}
	if len(req.Draws) < 1 || len(req.Draws) > maxStatDraws {
		httperr.Errs(w, errs.Invalid("draws must be between 1 and %d", maxStatDraws))
		return
	}
	ent, err := h.resolvePlan(req.PID, req.Plan)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	s, err := h.lab.Setting(ent.PID)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rec, err := recorder.NewInclusionRecorder(s)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	x := make([]bool, s.Q())
	for n, cases := range req.Draws {
		clear(x)
		for _, i := range cases {
			if i < 0 || i >= len(x) {
				httperr.Errs(w, errs.Invalid("draws[%d]: index %d out of [0,%d)", n, i, len(x)))
				return
			}
			if x[i] {
				httperr.Errs(w, errs.Invalid("draws[%d]: duplicate index %d", n, i))
				return
			}
			x[i] = true
		}
		rec.Record(x)
	}
	writeReport(w, req.Render, rec.Done(), 0, 0)
}
