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

package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/cbsample/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 可用的 profiling 模式，空字串代表不 profiling
var Modes = []string{"", "cpu", "heap", "allocs"}

// RunPProf 依 mode 包住 exe 執行並寫出 profile，dir 為空時使用 DefaultDir。
//
//	cbsample --pprof cpu sim --plan Linear -n 200000
//	go tool pprof build/profiling/cpu.pprof
//
// exe 的錯誤優先回傳；profile 寫入失敗時回傳 Fatal 錯誤。
func RunPProf(exe func() error, mode, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return profileCPU(exe, dir)
	case "heap":
		return profileAfter(exe, dir, "heap")
	case "allocs":
		return profileAfter(exe, dir, "allocs")
	default:
		return errs.Warnf("unknown pprof mode %q", mode)
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, name+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name+".pprof")
	}
	return f, nil
}

// profileCPU 可作效能分析，也可作為 PGO 的 default.pgo 來源
func profileCPU(exe func() error, dir string) error {
	f, err := create(dir, "cpu")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	err = exe()
	pprof.StopCPUProfile()
	return err
}

// profileAfter 在 exe 結束後寫出一次快照。
// heap 為 in-use 記憶體，寫出前先 GC；allocs 為累積配置，需搭配 -alloc_space 查看。
func profileAfter(exe func() error, dir, name string) error {
	if err := exe(); err != nil {
		return err
	}
	f, err := create(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()
	if name == "heap" {
		runtime.GC()
	}
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("profile %s not found", name)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}
