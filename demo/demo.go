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

// Package demo 以內建示範計畫組出 Lab 與服務設定，給 cmd 與範例使用。
package demo

import (
	"log/slog"

	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/catalog"
	"github.com/zintix-labs/cbsample/demo/demo_configs"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/server/logger"
	"github.com/zintix-labs/cbsample/server/svrcfg"
)

// New 只建立 catalog（未註冊）
func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab 註冊全部示範計畫並 Freeze
func NewLab(opts ...cbsample.Option) (*cbsample.Lab, error) {
	return cbsample.NewAuto(cbsample.Configs(demo_configs.FS), opts...)
}

// NewServerConfig Dev 模式的服務設定：非同步 logger、每份計畫一台機台。
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	lab, err := NewLab(cbsample.WithLogger(log))
	if err != nil {
		return nil, errs.Wrap(err, "new lab failed")
	}
	return &svrcfg.SvrCfg{
		Log:      log,
		PoolSize: 1,
		Lab:      lab,
	}, nil
}

// Logger 讓 cmd 共用同一種 logger 組法
func Logger(mode logger.LogMode) *slog.Logger {
	return logger.NewDefaultAsyncLogger(mode)
}
