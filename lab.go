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

// Package cbsample 提供條件伯努利抽樣引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把計畫目錄（Catalog）與亂數核心組裝在一起，並提供建立 Machine / Simulator / Runtime 的入口：
//  1. Catalog：計畫目錄（Single Source of Truth），定義有哪些抽樣計畫、各自對應的設定檔名稱。
//  2. PRNG：每份計畫自行宣告 pcg64 或 pcg32，Machine 以 seed 或快照建立可重現的核心。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Lab.BuildRuntime 建立機台池，對外提供 Draw。
//   - 模擬器（sim）：由 Lab.NewSimulator 大量抽樣，檢驗包含機率。
package cbsample

import (
	"crypto/rand"
	"io/fs"
	"log/slog"
	"math"
	"math/big"

	"github.com/zintix-labs/cbsample/catalog"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

// Configs 把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把設定編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Option 調整 Lab 的可選行為
type Option func(*Lab)

// WithLogger 指定 logger；未指定時不輸出任何日誌。
func WithLogger(l *slog.Logger) Option {
	return func(lab *Lab) {
		if l != nil {
			lab.log = l
		}
	}
}

// Lab 是組裝器與運行入口。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、掃描設定檔、檢查重複。
//   - 執行階段：Freeze 之後依計畫 ID 產生 Machine / Simulator / Runtime。
//
// Catalog 的 ID 唯一性只保證在同一個 Lab instance 內。
type Lab struct {
	cat *catalog.Catalog
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立一個尚在註冊階段的 Lab。cfgs 至少一個。
func New(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat: cata,
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(lab)
	}
	return lab, nil
}

// NewAuto 建立並直接進入執行階段：註冊所有設定檔後 Freeze。
func NewAuto(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	lab, err := New(cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔（.yaml/.yml/.json），以檔內宣告的 id/name 批次註冊。
//
//  1. Fail-fast：任何一檔解析或檢查失敗立即回傳 error。
//  2. 原子性：全部通過後才呼叫一次 Register，不會留下半套目錄。
//  3. 穩定性：依檔名排序處理。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	names := cfgs.Names()
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]catalog.Entry, 0, len(names))
	seenID := map[plan.PID]string{}
	for _, name := range names {
		s, err := cfgs.ReadSetting(name)
		if err != nil {
			return errs.WrapWithExtra(err, "parse plan failed", name)
		}
		if prev, ok := seenID[s.ID]; ok {
			return errs.Fatalf("duplicate plan id: %d (config=%s and %s)", s.ID, prev, name)
		}
		seenID[s.ID] = name
		entries = append(entries, catalog.Entry{
			PID:        s.ID,
			Name:       s.Name,
			ConfigName: name,
		})
		l.log.Debug("plan found", slog.String("config", name), slog.String("plan", s.String()))
	}
	if err := l.cat.Register(entries...); err != nil {
		return err
	}
	l.log.Info("plans registered", slog.Int("count", len(entries)))
	return nil
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryByID(id plan.PID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []plan.PID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

// Summary 列舉所有計畫的摘要，結果會被快取。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		s, err := l.cat.SettingByID(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse plan failed")
		}
		cs = append(cs, catalog.NewSummary(s))
	}
	l.sum = cs
	return l.sum, nil
}

// Setting 取得已註冊計畫的設定；每次呼叫都重新解析，回傳值可自由修改。
func (l *Lab) Setting(id plan.PID) (*plan.Setting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.SettingByID(id)
}

// NewMachine 依計畫 ID 建立一台 Machine，seed 由 crypto/rand 產生。
func (l *Lab) NewMachine(id plan.PID) (*Machine, error) {
	s, err := l.Setting(id)
	if err != nil {
		return nil, err
	}
	return newMachine(s)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// seed 只是出生入口；要在任意時間點重現，請使用 SnapshotCore / RestoreCore。
func (l *Lab) NewMachineWithSeed(id plan.PID, seed int64) (*Machine, error) {
	s, err := l.Setting(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(s, seed), nil
}

func (l *Lab) NewSimulator(id plan.PID) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorWithSeed(id, seed)
}

func (l *Lab) NewSimulatorWithSeed(id plan.PID, seed int64) (*Simulator, error) {
	s, err := l.Setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(s, seed), nil
}

// NewSimulatorByConfig 以未註冊的設定檔內容建立模擬器，filename 只用來判斷格式。
//
// 用於調參：不需重新部署即可試跑新的 pi / r / window。
func (l *Lab) NewSimulatorByConfig(filename string, raw []byte, seed int64) (*Simulator, error) {
	s, err := plan.GetSettingByExt(filename, raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(s, seed), nil
}

// BuildRuntime 為每份計畫建立一個機台池，進入 runtime 前 catalog 會被 Freeze。
func (l *Lab) BuildRuntime(poolSize int) (*Runtime, error) {
	l.Freeze()

	ids := l.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no plans registered")
	}
	rt := newRuntime(l, ids, poolSize)
	for _, id := range ids {
		s, err := l.cat.SettingByID(id)
		if err != nil {
			return nil, err
		}
		seed, err := cryptoSeed()
		if err != nil {
			return nil, err
		}
		rt.pools[id] = newMachinePool(rt.poolSize, s, seed)
		rt.byName[normName(s.Name)] = id
	}
	l.log.Info("runtime built", slog.Int("plans", len(ids)), slog.Int("pool_size", rt.poolSize))
	return rt, nil
}

// NewDevSimulator 只提供給 Dev 模式：單機台、同一 seed，重點是可重現。
func (l *Lab) NewDevSimulator(id plan.PID, seed int64) (*DevSimulator, error) {
	sim, err := l.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	m, err := l.NewMachineWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	return newDevSimulator(sim, m)
}

func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
