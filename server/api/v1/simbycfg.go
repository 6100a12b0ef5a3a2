package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/server/httperr"
)

// SimByCfgRequest 以未註冊的計畫設定試跑。
//
// cfg 可以是 JSON 物件（直接視為 JSON 設定），或是一段字串（視為 YAML 文字）。
type SimByCfgRequest struct {
	Cfg    json.RawMessage `json:"cfg"`
	Draws  int             `json:"draws"`
	Seed   *int64          `json:"seed,omitempty"`
	Render string          `json:"render"`
}

// rawConfig 回傳 (檔名, 內容)，檔名只用來決定解碼格式。
func (r *SimByCfgRequest) rawConfig() (string, []byte, error) {
	raw := bytes.TrimSpace(r.Cfg)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil, errs.Invalid("cfg is required")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", nil, errs.Invalid("cfg: %v", err)
		}
		return "inline.yaml", []byte(text), nil
	}
	return "inline.json", raw, nil
}

// MaxInlineQ 內嵌設定允許的最大位置數
const MaxInlineQ = 2000

// SimByCfg 不需重新部署即可試跑新的 pi / r / window。
func (h *Handler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	req := new(SimByCfgRequest)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Invalid("json decode failed: %v", err))
		return
	}
	if err := validSim(req.Draws, 1); err != nil {
		httperr.Errs(w, err)
		return
	}
	name, raw, err := req.rawConfig()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOr(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	sim, err := h.lab.NewSimulatorByConfig(name, raw, seed)
	if err != nil {
		// 設定內容由呼叫端提供，解析失敗屬於請求錯誤
		bad := errs.Wrap(err, "bad plan config")
		bad.ErrLv = errs.Warn
		httperr.Errs(w, bad)
		return
	}
	if q := sim.Setting().Q(); q > MaxInlineQ {
		httperr.Errs(w, errs.Invalid("inline plan q=%d exceeds %d", q, MaxInlineQ))
		return
	}
	start := time.Now()
	rep, used, err := sim.SimContext(r.Context(), req.Draws, false)
	h.met.observeSim(start, rep, err)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeReport(w, req.Render, rep, seed, used)
}
