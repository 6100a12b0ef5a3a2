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

package api

import (
	"log/slog"

	"github.com/zintix-labs/cbsample/server/api/dev"
	v1 "github.com/zintix-labs/cbsample/server/api/v1"
	"github.com/zintix-labs/cbsample/server/netsvr"
	"github.com/zintix-labs/cbsample/server/netsvr/middleware"
	"github.com/zintix-labs/cbsample/server/svrcfg"
)

// RegisterRoutes 掛上 middleware 與所有路由，回傳的 v1.Handler 持有 Runtime，
// 呼叫端負責在關閉時 Runtime().Close()。sCfg 需先通過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) (*v1.Handler, error) {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return nil, err
	}
	registerMiddleware(svr, sCfg.Log) // 1. middleware
	dev.Register(svr, sCfg.Lab)       // 2. 開發者工具頁
	registerV1API(svr, h)             // 3. v1 api
	return h, nil
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func registerV1API(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/plans", h.Plans)
		vOne.Get("/metrics", h.Metrics)

		vOne.Get("/draw", h.Draw)
		vOne.Post("/draw", h.Draw)
		vOne.Get("/sim", h.Sim)
		vOne.Post("/sim", h.Sim)
		vOne.Post("/simbycfg", h.SimByCfg)
		vOne.Post("/stat", h.Stat)
	})
}
