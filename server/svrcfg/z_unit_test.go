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
	"testing"
	"time"

	"github.com/zintix-labs/cbsample/server/logger"
)

func TestValidDefaults(t *testing.T) {
	sc := &SvrCfg{Log: logger.NewDefaultLogger(logger.ModeSilence)}
	if err := sc.Valid(); err == nil {
		t.Fatalf("lab is required")
	}
	if sc.PoolSize != DefaultPoolSize {
		t.Fatalf("pool size want %d got %d", DefaultPoolSize, sc.PoolSize)
	}
	if sc.DrawTimeout != DefaultDrawTimeout {
		t.Fatalf("draw timeout want %v got %v", DefaultDrawTimeout, sc.DrawTimeout)
	}
	if sc.Metrics == nil {
		t.Fatalf("metrics registry should be created")
	}

	sc = &SvrCfg{Log: logger.NewDefaultLogger(logger.ModeSilence), PoolSize: 1000, DrawTimeout: time.Second}
	_ = sc.Valid()
	if sc.PoolSize != maxPoolSize || sc.DrawTimeout != time.Second {
		t.Fatalf("unexpected clamp: %d %v", sc.PoolSize, sc.DrawTimeout)
	}
}
