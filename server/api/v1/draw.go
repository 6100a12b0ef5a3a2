package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/server/httperr"
)

// Draw 線上抽一次。GET 走 query string，POST 走 JSON body；
// 帶 start_b64u 時從該快照回放，用於對帳。
func (h *Handler) Draw(w http.ResponseWriter, q *http.Request) {
	if !allowMethods(w, q, http.MethodGet, http.MethodPost) {
		return
	}
	req, err := dto.DecodeDrawRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(q.Context(), h.drawTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.rt.Draw(ctx, req)
	h.met.observeDraw(start, result, err)
	if err != nil {
		httperr.Log(h.log, "draw failed", err)
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Log(h.log, "encode draw result", err)
	}
}
