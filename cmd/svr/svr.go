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

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/demo"
	"github.com/zintix-labs/cbsample/server"
	"github.com/zintix-labs/cbsample/server/logger"
	"github.com/zintix-labs/cbsample/server/netsvr"
	"github.com/zintix-labs/cbsample/server/svrcfg"
)

// 這是 lab server 入口：預設載入示範計畫並開啟 /dev 頁面。
// 正式部署請以 --config 指定計畫目錄並使用 -log-mode prod。
func main() {
	cfg, sCfg, err := loadConfigFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.RunWithSvr(sCfg, netsvr.NewChiServer(cfg.Addr, netsvr.Timeouts{Write: cfg.WriteTimeout}))
}

type config struct {
	Addr         string
	LogMode      string
	Config       string
	PoolSize     int
	DrawTimeout  time.Duration
	WriteTimeout time.Duration
}

func parseFlags(args []string) (*config, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("cbsample-svr", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", ":5810", "listen address")
	fs.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	fs.StringVar(&cfg.Config, "config", "", "directory of plan files; empty uses the embedded demo plans")
	fs.IntVar(&cfg.PoolSize, "pool", svrcfg.DefaultPoolSize, "number of machines per plan")
	fs.DurationVar(&cfg.DrawTimeout, "draw-timeout", svrcfg.DefaultDrawTimeout, "timeout of a single /v1/draw")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", netsvr.DefaultTimeouts.Write, "http write timeout (bounds /v1/sim)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromFlags(args []string) (*config, *svrcfg.SvrCfg, error) {
	cfg, err := parseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	var lab *cbsample.Lab
	if cfg.Config != "" {
		lab, err = cbsample.NewAuto(cbsample.Configs(os.DirFS(cfg.Config)), cbsample.WithLogger(log))
	} else {
		lab, err = demo.NewLab(cbsample.WithLogger(log))
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, &svrcfg.SvrCfg{
		Log:         log,
		PoolSize:    cfg.PoolSize,
		DrawTimeout: cfg.DrawTimeout,
		Lab:         lab,
	}, nil
}
