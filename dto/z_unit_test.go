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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/cbsample/plan"
)

func TestDecodeDrawRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/draw?uid=u1&plan=demo&pid=7&start_b64u=AQID", nil)
	req, err := DecodeDrawRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.PlanName != "demo" || req.PlanID != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	snap, err := req.StartSnap()
	if err != nil || !bytes.Equal(snap, []byte{1, 2, 3}) {
		t.Fatalf("start snap: %v %v", snap, err)
	}
}

func TestDecodeDrawRequestPOST(t *testing.T) {
	data := []byte(`{"uid":"u2","plan":"demo","pid":9}`)
	r := httptest.NewRequest(http.MethodPost, "/draw", bytes.NewReader(data))
	req, err := DecodeDrawRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.PlanID != 9 || req.StartState != nil {
		t.Fatalf("unexpected request: %+v", req)
	}
	if snap, err := req.StartSnap(); snap != nil || err != nil {
		t.Fatalf("new draw should have no start snap")
	}
}

func TestDecodeDrawRequestRejects(t *testing.T) {
	data := []byte(`{"pid":1,"plan":"demo","unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/draw", bytes.NewReader(data))
	if _, err := DecodeDrawRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	r = httptest.NewRequest(http.MethodGet, "/draw?pid=x", nil)
	if _, err := DecodeDrawRequest(r); err == nil {
		t.Fatalf("expected error for bad pid")
	}
	r = httptest.NewRequest(http.MethodDelete, "/draw", nil)
	if _, err := DecodeDrawRequest(r); err == nil {
		t.Fatalf("expected error for DELETE")
	}
	req := &DrawRequest{StartState: &StartState{StartCoreSnapB64U: "@@"}}
	if _, err := req.StartSnap(); err == nil {
		t.Fatalf("expected error for bad base64url")
	}
}

func TestDrawResult(t *testing.T) {
	s, err := plan.GetSettingByYAML([]byte("name: d\nid: 2\nmethod: reject\npi: [0.5, 0.5, 0.5, 0.5]\nr: 2\n"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	x := []bool{false, true, false, true}
	d := NewDrawResult(s, x, []byte{1}, []byte{2})
	if len(d.Cases) != 2 || d.Cases[0] != 1 || d.Cases[1] != 3 {
		t.Fatalf("cases: %v", d.Cases)
	}
	got := d.Labels()
	for i := range x {
		if got[i] != x[i] {
			t.Fatalf("labels: %v", got)
		}
	}
	b, _ := json.Marshal(d)
	if !strings.Contains(string(b), `"method":"reject"`) || !strings.Contains(string(b), `"start_b64u":"AQ"`) {
		t.Fatalf("json: %s", b)
	}
}
