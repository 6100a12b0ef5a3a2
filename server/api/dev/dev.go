// Package dev 提供開發期用的 Dev Panel HTTP endpoints。
//
//   - 指定計畫、Seed 或 Snap，連續抽樣或模擬，檢視每一筆結果與前後 PRNG 快照。
//   - Snap 優先於 Seed：帶 Snap 時從該快照回放，結果必須與當初完全一致。
//
// 這不是 production API，錯誤一律經 httperr.Errs 回應。
package dev

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/catalog"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/server/httperr"
	"github.com/zintix-labs/cbsample/server/netsvr"
)

//go:embed panel.html
var panelHTML []byte

//go:embed favicon.svg
var faviconSVG []byte

type devRequest struct {
	PID   plan.PID `json:"pid"`
	Plan  string   `json:"plan"`
	Draws int      `json:"draws"`
	Seed  string   `json:"seed"`
	Snap  string   `json:"snap"`
}

func Register(svr netsvr.NetRouter, lab *cbsample.Lab) {
	svr.Get("/dev", page)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", meta(lab))
	svr.Post("/dev/draws", draws(lab))
	svr.Post("/dev/sim", sim(lab))
}

func page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(panelHTML)
}

func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(faviconSVG)
}

func meta(lab *cbsample.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

func draws(lab *cbsample.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, req, err := prepare(lab, r)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report cbsample.DevDrawReport
		if snap := strings.TrimSpace(req.Snap); snap != "" {
			report, err = ds.RestoreDraws(snap, req.Draws)
		} else {
			report, err = ds.Draws(req.Draws)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

func sim(lab *cbsample.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, req, err := prepare(lab, r)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report cbsample.DevSimReport
		if snap := strings.TrimSpace(req.Snap); snap != "" {
			report, err = ds.RestoreSim(snap, req.Draws)
		} else {
			report, err = ds.Sim(req.Draws)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// prepare 解碼請求並建立 DevSimulator；Snap 回放時 seed 不影響結果。
func prepare(lab *cbsample.Lab, r *http.Request) (*cbsample.DevSimulator, *devRequest, error) {
	req := new(devRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, nil, errs.Invalid("invalid json: %v", err)
	}
	sum, err := resolveSummary(lab, req)
	if err != nil {
		return nil, nil, err
	}
	if req.Draws < 1 {
		return nil, nil, errs.Invalid("draws is required")
	}
	seed, err := resolveSeed(req.Seed, sum.Name)
	if err != nil {
		return nil, nil, err
	}
	ds, err := lab.NewDevSimulator(sum.PID, seed)
	if err != nil {
		return nil, nil, err
	}
	return ds, req, nil
}

func resolveSummary(lab *cbsample.Lab, req *devRequest) (catalog.Summary, error) {
	sums, err := lab.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	if req.PID > 0 {
		for _, s := range sums {
			if s.PID == req.PID {
				return s, nil
			}
		}
		return catalog.Summary{}, errs.Invalid("pid %d not found", req.PID)
	}
	name := strings.TrimSpace(req.Plan)
	if name == "" {
		return catalog.Summary{}, errs.Invalid("plan is required")
	}
	for _, s := range sums {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return catalog.Summary{}, errs.Invalid("plan %q not found", name)
}

// resolveSeed 空字串時以計畫名稱導出固定 seed，讓 Dev Panel 預設結果可重現。
func resolveSeed(seed, planName string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return plan.SeedFromKey("dev/" + planName), nil
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.Invalid("seed must be int64")
	}
	return v, nil
}
