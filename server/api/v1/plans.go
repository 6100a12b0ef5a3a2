package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/cbsample/catalog"
	"github.com/zintix-labs/cbsample/server/httperr"
)

// PlansResponse 已註冊計畫與其 Runtime 設定
type PlansResponse struct {
	PoolSize int               `json:"pool_size"`
	Plans    []catalog.Summary `json:"plans"`
}

// Plans 列出所有已註冊的計畫
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	sum, err := h.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(PlansResponse{PoolSize: h.rt.PoolSize(), Plans: sum})
}
