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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/cbsample/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則：
//   - ctx timeout/cancel                       → 504/408
//   - KindUnattainable / KindIterationLimit     → 422（參數合法，但這組機率抽不出結果）
//   - errs.Warn                                 → 400
//   - errs.Fatal 或非 errs 錯誤                 → 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	switch errs.KindOf(err) {
	case errs.KindUnattainable, errs.KindIterationLimit:
		return http.StatusUnprocessableEntity
	}

	if e, ok := errs.AsErr(err); ok {
		switch e.ErrLv {
		case errs.Warn:
			return http.StatusBadRequest
		case errs.Fatal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應的 JSON 結構
type Body struct {
	Status int    `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error"`
}

// Errs 寫回 JSON 錯誤；err 為 nil 時不做事。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{
		Status: status,
		Kind:   errs.KindOf(err).String(),
		Error:  err.Error(),
	})
}

// Log 只記錄值得關注的錯誤：逾時類記 Warn、5xx 記 Error。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	if (status == http.StatusRequestTimeout) || (status == http.StatusGatewayTimeout) {
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	} else if (status >= 500) && (status < 600) {
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
