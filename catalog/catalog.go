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

package catalog

import (
	"io/fs"
	"slices"
	"sort"
	"strings"

	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
)

var (
	ErrDupID   = errs.NewFatal("duplicate plan id")
	ErrDupName = errs.NewFatal("duplicate plan name")
)

// Entry : 計畫編號、名稱與其設定檔（扁平 FS 內的檔名）
type Entry struct {
	PID        plan.PID
	Name       string
	ConfigName string
}

// Summary 對外列舉用的計畫摘要
type Summary struct {
	PID    plan.PID `json:"pid"    yaml:"pid"`
	Name   string   `json:"name"   yaml:"name"`
	Method string   `json:"method" yaml:"method"`
	PRNG   string   `json:"prng"   yaml:"prng"`
	Q      int      `json:"q"      yaml:"q"`
	R      int      `json:"r"      yaml:"r"`
	Window int      `json:"window" yaml:"window"`
}

// NewSummary 由已解析的 Setting 產生摘要。
func NewSummary(s *plan.Setting) Summary {
	prng := s.PRNG
	if prng == "" {
		prng = "pcg64"
	}
	return Summary{
		PID:    s.ID,
		Name:   s.Name,
		Method: s.Method,
		PRNG:   prng,
		Q:      s.Q(),
		R:      s.R,
		Window: s.Window,
	}
}

// Catalog 是計畫目錄：id/name 對應到哪個設定檔。
//
// 註冊階段結束後需 Freeze，之後只讀，可被多 goroutine 共享。
type Catalog struct {
	byID   map[plan.PID]Entry
	byName map[string]Entry
	ids    []plan.PID          // 穩定排序
	files  map[string]struct{} // 已註冊的設定檔，一檔一計畫
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	mfs, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[plan.PID]Entry{},
		byName: map[string]Entry{},
		files:  map[string]struct{}{},
		config: mfs,
	}, nil
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register 原子性地註冊一批計畫：任何一筆不合法，整批都不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[plan.PID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("plan name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.Fatalf("config file not found: %s", meta.ConfigName)
		}
		if _, ok := c.byID[meta.PID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[meta.PID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		_, dupFile := c.files[meta.ConfigName]
		if _, ok := seenCfg[meta.ConfigName]; ok || dupFile {
			return errs.Fatalf("duplicate config name: %s", meta.ConfigName)
		}
		seenID[meta.PID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.files[meta.ConfigName] = struct{}{}
		c.byID[meta.PID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.PID)
	}
	slices.Sort(c.ids)
	return nil
}

func (c *Catalog) GetByID(id plan.PID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// GetByName 名稱不分大小寫、忽略前後空白。
func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) IDs() []plan.PID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

// All 依 id 排序回傳所有 Entry。
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// validFileName : 必須是扁平檔名、不可以 . 開頭、副檔名為 .yaml/.yml/.json
func validFileName(file string) error {
	switch {
	case file == "":
		return errs.NewFatal("empty config filename")
	case strings.ContainsAny(file, `/\:`):
		return errs.Fatalf("invalid config filename: %q (must be a basename)", file)
	case strings.HasPrefix(file, "."):
		return errs.Fatalf("invalid config filename: %q (cannot start with '.')", file)
	case !plan.IsConfigFile(file):
		return errs.Fatalf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	return nil
}

// SettingByID 讀取並解析 id 對應的設定檔。
func (c *Catalog) SettingByID(id plan.PID) (*plan.Setting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Warnf("plan id %d does not exist in catalog", id)
	}
	return c.read(e)
}

// SettingByName 讀取並解析 name 對應的設定檔，名稱不分大小寫。
func (c *Catalog) SettingByName(name string) (*plan.Setting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("plan %q does not exist in catalog", name)
	}
	return c.read(e)
}

func (c *Catalog) read(e Entry) (*plan.Setting, error) {
	return c.config.ReadSetting(e.ConfigName)
}

// multiFS 合併多個扁平設定來源，檔名在所有來源間必須唯一。
type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
	names []string       // 排序後的檔名
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}
	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", path)
			}
			// 非設定檔（例如 embed.go）與隱藏檔直接略過
			if strings.HasPrefix(path, ".") || !plan.IsConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Fatalf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			m.names = append(m.names, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(m.names)
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}

// Names 所有可解析的設定檔名（已排序）
func (m *multiFS) Names() []string {
	return append([]string(nil), m.names...)
}

// ReadSetting 直接以檔名讀取並解析設定檔（不需先註冊）。
func (m *multiFS) ReadSetting(name string) (*plan.Setting, error) {
	src, ok := m.GetFS(name)
	if !ok {
		return nil, errs.Warnf("config %s does not exist", name)
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return plan.GetSettingByExt(name, raw)
}
