package main

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli"
	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 非 TTY 輸出時 color 自動關閉
var (
	green = color.New(color.FgGreen, color.Bold)
	red   = color.New(color.FgRed, color.Bold)
)

func listPlans(c *cli.Context, lab *cbsample.Lab) error {
	sum, err := lab.Summary()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	w := c.App.Writer
	p.Fprintf(w, "%4s  %s  %-6s %-6s %6s %6s %6s\n", "pid", runewidth.FillRight("name", 16), "method", "prng", "q", "r", "window")
	for _, s := range sum {
		p.Fprintf(w, "%4d  %s  %-6s %-6s %6d %6d %6d\n",
			s.PID, runewidth.FillRight(runewidth.Truncate(s.Name, 16, "…"), 16), s.Method, s.PRNG, s.Q, s.R, s.Window)
	}
	return nil
}

func drawPlan(c *cli.Context, lab *cbsample.Lab) error {
	id, err := resolvePlan(lab, c.String("plan"))
	if err != nil {
		return err
	}
	seed, err := seedFlag(c)
	if err != nil {
		return err
	}
	ds, err := lab.NewDevSimulator(id, seed)
	if err != nil {
		return err
	}
	var report cbsample.DevDrawReport
	if snap := strings.TrimSpace(c.String("snap")); snap != "" {
		report, err = ds.RestoreDraws(snap, c.Int("num"))
	} else {
		report, err = ds.Draws(c.Int("num"))
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func simPlan(c *cli.Context, lab *cbsample.Lab) error {
	id, err := resolvePlan(lab, c.String("plan"))
	if err != nil {
		return err
	}
	seed, err := seedFlag(c)
	if err != nil {
		return err
	}
	sim, err := lab.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return err
	}
	draws, workers := c.Int("num"), c.Int("workers")
	render := strings.ToLower(c.String("render"))

	// 選錯輸出格式時不必先跑完模擬
	var rd stats.InclusionReportRender
	if render != "" {
		var ok bool
		if rd, ok = stats.RenderByName(render); !ok {
			return errs.Invalid("unknown render %q", render)
		}
	}

	p := message.NewPrinter(language.English)
	if render == "" {
		green.Fprintln(c.App.Writer, p.Sprintf("[PLAN:%s] [SEED:%d] [WORKERS:%d] [DRAWS:%d]",
			sim.Setting().Name, seed, workers, draws*workers))
	}
	var rep *stats.InclusionReport
	var used time.Duration
	if workers > 1 {
		rep, used, err = sim.SimMP(draws, workers, c.Bool("progress"))
	} else {
		rep, used, err = sim.Sim(draws, c.Bool("progress"))
	}
	if err != nil {
		return err
	}
	if rd == nil {
		rep.StdOut(used)
		return nil
	}

	w := c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return errs.Wrap(err, "create report file")
		}
		defer f.Close()
		w = f
	}
	return rep.WriteWith(w, rd)
}

// verifyPlans 每份計畫跑 n 次，違規或 |z| 過大即失敗；用於 CI 或換 PRNG 後的回歸檢查。
func verifyPlans(c *cli.Context, lab *cbsample.Lab) error {
	n, maxZ := c.Int("num"), c.Float64("max-z")
	seed := c.Int64("seed")
	p := message.NewPrinter(language.English)
	w := c.App.Writer

	failed := 0
	for _, id := range lab.IDs() {
		sim, err := lab.NewSimulatorWithSeed(id, seed)
		if err != nil {
			return err
		}
		rep, _, err := sim.Sim(n, false)
		if err != nil {
			return err
		}
		ok := verdict(rep, maxZ)
		if !ok {
			failed++
		}
		writeVerdict(p, w, rep, ok)
	}
	if failed > 0 {
		return cli.NewExitError(p.Sprintf("%d plan(s) failed verification", failed), 2)
	}
	return nil
}

func verdict(rep *stats.InclusionReport, maxZ float64) bool {
	s := rep.Summary
	return s.Violations == 0 && s.Failures == 0 && s.Certain == 0 &&
		!math.IsNaN(s.MaxAbsZ) && s.MaxAbsZ <= maxZ
}

func writeVerdict(p *message.Printer, w io.Writer, rep *stats.InclusionReport, ok bool) {
	s := rep.Summary
	mark := green.Sprint("PASS")
	if !ok {
		mark = red.Sprint("FAIL")
	}
	p.Fprintf(w, "%s  %4d %s draws=%d violations=%d failures=%d certain_miss=%d max|z|=%.3f coverage=%.1f%%\n",
		mark, s.PlanID, runewidth.FillRight(s.PlanName, 16), s.Draws, s.Violations, s.Failures, s.Certain, s.MaxAbsZ, 100*s.Coverage)
}

func cryptoSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return rnd.Int64(), nil
}
