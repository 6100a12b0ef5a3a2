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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/server/api"
	"github.com/zintix-labs/cbsample/server/app"
	"github.com/zintix-labs/cbsample/server/netsvr"
	"github.com/zintix-labs/cbsample/server/svrcfg"
)

// Run 以預設 ChiAdapter 組裝並啟動服務，阻塞到收到終止信號。
//
// 依賴全部來自 SvrCfg；Run 不讀檔案也不讀環境變數。
func Run(sCfg *svrcfg.SvrCfg) {
	RunWithSvr(sCfg, netsvr.NewChiServerDefault())
}

// RunWithSvr 與 Run 相同，但由呼叫端注入 NetSvr（自訂位址、timeout 或其他框架的 adapter）。
//
//   - svr 必須非 nil；若是 ChiAdapter 需 Ready()。
//   - 關閉時會先停 HTTP server，再關閉 Runtime 內所有機台池。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的 logger 不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	h, err := api.RegisterRoutes(svr, sCfg)
	if err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	a := app.New(app.WithLogger(sCfg.Log))
	a.Register(svr)
	a.Register(app.OnShutdown(func() { h.Runtime().Close() }))

	sCfg.Log.Info("[cbsample] listening on http://localhost" + svr.Address())
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
}
