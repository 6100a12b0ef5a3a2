package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/server/httperr"
	"github.com/zintix-labs/cbsample/stats"
)

const (
	MaxSimDraws   = 1_000_000
	MaxSimWorkers = 8
)

// SimRequest /v1/sim 的參數；GET 時同名 query string。
type SimRequest struct {
	PID     plan.PID `json:"pid"`
	Plan    string   `json:"plan"`
	Draws   int      `json:"draws"`
	Workers int      `json:"workers"` // >1 時 draws 平均分給多台機台平行模擬後合併
	Seed    *int64   `json:"seed,omitempty"`
	Render  string   `json:"render"` // json / yaml / table / html
}

// SimResponse render=json 時的回應
type SimResponse struct {
	Stats    *stats.InclusionReport `json:"stats"`
	Seed     int64                  `json:"seed,omitempty"`
	UsedTime int64                  `json:"used_ms"`
}

func decodeSimRequest(q *http.Request) (*SimRequest, error) {
	req := &SimRequest{Workers: 1}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(io.LimitReader(q.Body, 1<<20)).Decode(req); err != nil {
			return nil, errs.Invalid("invalid json: %v", err)
		}
		return req, nil
	}
	v := q.URL.Query()
	var err error
	if req.PID, err = queryPID(v.Get("pid")); err != nil {
		return nil, err
	}
	req.Plan = v.Get("plan")
	if req.Draws, err = queryInt(v.Get("draws"), "draws", 0); err != nil {
		return nil, err
	}
	if req.Workers, err = queryInt(v.Get("workers"), "workers", 1); err != nil {
		return nil, err
	}
	if req.Seed, err = querySeed(v.Get("seed")); err != nil {
		return nil, err
	}
	req.Render = v.Get("render")
	return req, nil
}

func validSim(draws, workers int) error {
	if draws < 1 || draws > MaxSimDraws {
		return errs.Invalid("draws must be between 1 and %d", MaxSimDraws)
	}
	if workers < 1 || workers > MaxSimWorkers {
		return errs.Invalid("workers must be between 1 and %d", MaxSimWorkers)
	}
	return nil
}

// Sim 以已註冊計畫模擬 draws 次並回傳包含機率報表。
func (h *Handler) Sim(w http.ResponseWriter, q *http.Request) {
	if !allowMethods(w, q, http.MethodGet, http.MethodPost) {
		return
	}
	req, err := decodeSimRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ent, err := h.resolvePlan(req.PID, req.Plan)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Workers == 0 {
		req.Workers = 1
	}
	if err := validSim(req.Draws, req.Workers); err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOr(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := h.lab.NewSimulatorWithSeed(ent.PID, seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "build simulator err: "+ent.Name))
		return
	}

	start := time.Now()
	var rep *stats.InclusionReport
	var used time.Duration
	if req.Workers > 1 {
		per := (req.Draws + req.Workers - 1) / req.Workers
		rep, used, err = sim.SimMP(per, req.Workers, false)
	} else {
		rep, used, err = sim.SimContext(q.Context(), req.Draws, false)
	}
	h.met.observeSim(start, rep, err)
	if err != nil {
		httperr.Log(h.log, "simulate failed", err)
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeReport(w, req.Render, rep, seed, used)
}

var renderContentType = map[string]string{
	"json":  "application/json",
	"yaml":  "application/yaml",
	"yml":   "application/yaml",
	"table": "text/plain; charset=utf-8",
	"html":  "text/html; charset=utf-8",
	"chart": "text/html; charset=utf-8",
}

// writeReport 先完整渲染到記憶體，避免寫到一半才失敗留下殘缺的回應。
func writeReport(w http.ResponseWriter, render string, rep *stats.InclusionReport, seed int64, used time.Duration) {
	render = strings.ToLower(strings.TrimSpace(render))
	if render == "" || render == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SimResponse{Stats: rep, Seed: seed, UsedTime: used.Milliseconds()})
		return
	}
	rd, ok := stats.RenderByName(render)
	if !ok {
		httperr.Errs(w, errs.Invalid("unknown render %q", render))
		return
	}
	var b bytes.Buffer
	if err := rd.Write(&b, rep); err != nil {
		httperr.Errs(w, errs.Wrap(err, "render report"))
		return
	}
	w.Header().Set("Content-Type", renderContentType[render])
	_, _ = w.Write(b.Bytes())
}
