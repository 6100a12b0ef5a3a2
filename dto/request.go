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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/cbsample/corefmt"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

type DrawRequest struct {
	UID        string      `json:"uid"`                   // 唯一識別碼
	PlanName   string      `json:"plan"`                  // 計畫名稱
	PlanID     plan.PID    `json:"pid"`                   // 計畫編號
	StartState *StartState `json:"start_state,omitempty"` // 可選：nil 為新抽樣，帶 start_b64u 為回放
}

// StartState 由呼叫端帶入的 PRNG 起始狀態。
//
// Request 只允許提供 Start；After 只會出現在回應的 DrawState。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

// StartSnap 解出起始快照；未提供時回傳 nil。
func (r *DrawRequest) StartSnap() ([]byte, error) {
	if r.StartState == nil || r.StartState.StartCoreSnapB64U == "" {
		return nil, nil
	}
	b, err := corefmt.DecodeBase64URL(r.StartState.StartCoreSnapB64U)
	if err != nil {
		return nil, errs.Invalid("start_b64u: %v", err)
	}
	return b, nil
}

// DecodeDrawRequest 把 HTTP 請求解碼成 DrawRequest。
//
//   - GET：從 query string 讀取 uid/plan/pid/start_b64u
//   - POST：JSON body，限制 1MiB 並拒絕未知欄位
//
// 這裡只做解碼，計畫是否存在由上層決定。
func DecodeDrawRequest(r *http.Request) (*DrawRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(DrawRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.UID = q.Get("uid")
		req.PlanName = q.Get("plan")

		if s := q.Get("pid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.Invalid("invalid pid: %v", err)
			}
			req.PlanID = plan.PID(u)
		}
		if s := q.Get("start_b64u"); s != "" {
			req.StartState = &StartState{StartCoreSnapB64U: s}
		}
		return req, nil

	case http.MethodPost:
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, errs.Invalid("invalid json: %v", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}
