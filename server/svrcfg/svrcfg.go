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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/server/logger"
)

const (
	DefaultPoolSize    = 4
	DefaultDrawTimeout = 5 * time.Second
	maxPoolSize        = 64
)

// SvrCfg 服務端組裝所需的全部依賴，一律由外部明確注入。
type SvrCfg struct {
	Log         *slog.Logger
	PoolSize    int           // 每份計畫的機台數
	DrawTimeout time.Duration // 單次 /v1/draw 的逾時
	Lab         *cbsample.Lab
	Metrics     metrics.Registry // nil 時建立獨立 registry
}

// Valid 檢查必要依賴並補上預設值。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	if sc.PoolSize <= 0 {
		sc.PoolSize = DefaultPoolSize
	}
	sc.PoolSize = min(maxPoolSize, sc.PoolSize)
	if sc.DrawTimeout <= 0 {
		sc.DrawTimeout = DefaultDrawTimeout
	}
	if sc.Metrics == nil {
		sc.Metrics = metrics.NewRegistry()
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}
