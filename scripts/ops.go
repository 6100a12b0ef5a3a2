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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// task : 一個 go 子命令與其輸出過濾方式
type task struct {
	desc  string
	clean bool
	args  []string
	// filter 回傳 false 表示略過該行；nil 表示原樣輸出
	filter func(line string) bool
}

var tasks = map[string]task{
	"test": {
		desc:   "run all tests, print ok/FAIL lines only",
		clean:  true,
		args:   []string{"test", "./...", "-cover", "-count=1"},
		filter: summaryOnly,
	},
	"test-all": {
		desc:  "run all tests with coverage",
		clean: true,
		args:  []string{"test", "./...", "-cover"},
	},
	"test-detail": {
		desc:   "verbose tests without [no test files] noise",
		clean:  true,
		args:   []string{"test", "./...", "-v", "-count=1"},
		filter: func(line string) bool { return !strings.Contains(line, "[no test files]") },
	},
	"bench": {
		desc: "benchmark samplers and extended floats",
		args: []string{"test", "./sdk/sampler/...", "./sdk/xfloat/...", "-run", "^$", "-bench", ".", "-benchmem"},
	},
	"verify": {
		desc: "chi-square check of every demo plan",
		args: []string{"run", "./cmd/run", "verify", "-n", "20000"},
	},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		PrintYellow(fmt.Sprintf("Unknown task: %s", os.Args[1]))
		usage()
		os.Exit(1)
	}
	if err := run(os.Args[1], t); err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task]")
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}

func run(name string, t task) error {
	PrintBlue("running " + name)
	if t.clean {
		// clean 失敗不影響後續測試
		if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
			PrintYellow("go clean -testcache: " + err.Error())
		}
	}

	cmd := exec.Command("go", t.args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", t.args[0], err)
	}

	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if t.filter != nil && !t.filter(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"), strings.HasPrefix(line, "PASS"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "--- FAIL"):
			PrintRed(line)
		default:
			fmt.Println(line)
		}
	}
	if err := sc.Err(); err != nil {
		PrintYellow("scanner error: " + err.Error())
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s finished with errors", name)
	}
	return nil
}

// summaryOnly 只保留 ok/FAIL 與建置失敗的行
func summaryOnly(line string) bool {
	return strings.HasPrefix(line, "ok") ||
		strings.HasPrefix(line, "FAIL") ||
		strings.Contains(line, "build failed") ||
		strings.Contains(line, "setup failed")
}
