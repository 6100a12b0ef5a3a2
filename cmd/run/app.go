package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/demo"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/sdk/perf"
	"github.com/zintix-labs/cbsample/server/logger"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "cbsample"
	app.Version = "0.1.0"
	app.Usage = "conditional Bernoulli sampling: draw, simulate and verify plans"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "directory of plan files (.yaml/.yml/.json); empty uses the embedded demo plans",
		},
		cli.StringFlag{
			Name:  "pprof,p",
			Usage: "profile the command: cpu, heap or allocs",
		},
		cli.StringFlag{
			Name:  "pprof-dir",
			Value: perf.DefaultDir,
			Usage: "directory for pprof output",
		},
		cli.StringFlag{
			Name:  "log-mode",
			Value: "silence",
			Usage: "dev, prod or silence",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:    "plans",
			Aliases: []string{"ls"},
			Usage:   "list registered plans",
			Action:  withProfile(listPlans),
		},
		{
			Name:    "draw",
			Aliases: []string{"d"},
			Usage:   "draw samples one by one and print every result with its PRNG snapshots",
			Action:  withProfile(drawPlan),
			Flags: []cli.Flag{
				cli.StringFlag{Name: "plan", Usage: "plan id or name"},
				cli.IntFlag{Name: "num,n", Value: 1, Usage: "number of draws"},
				cli.Int64Flag{Name: "seed,s", Value: -1, Usage: "int64 seed, negative for crypto random"},
				cli.StringFlag{Name: "snap", Usage: "replay from a start_b64u snapshot"},
			},
		},
		{
			Name:    "sim",
			Aliases: []string{"s"},
			Usage:   "simulate a plan and compare observed inclusion frequencies with exact probabilities",
			Action:  withProfile(simPlan),
			Flags: []cli.Flag{
				cli.StringFlag{Name: "plan", Usage: "plan id or name"},
				cli.IntFlag{Name: "num,n", Value: 100_000, Usage: "draws (per worker)"},
				cli.IntFlag{Name: "workers,w", Value: 1, Usage: "parallel machines"},
				cli.Int64Flag{Name: "seed,s", Value: -1, Usage: "int64 seed, negative for crypto random"},
				cli.StringFlag{Name: "render,r", Usage: "'' for the terminal summary, or json, yaml, table, html"},
				cli.StringFlag{Name: "out,o", Usage: "write the rendered report to a file instead of stdout"},
				cli.BoolFlag{Name: "progress", Usage: "show a progress bar"},
			},
		},
		{
			Name:   "verify",
			Usage:  "simulate every plan and fail if any plan violates r or drifts from its exact probabilities",
			Action: withProfile(verifyPlans),
			Flags: []cli.Flag{
				cli.IntFlag{Name: "num,n", Value: 20_000, Usage: "draws per plan"},
				cli.Int64Flag{Name: "seed,s", Value: 1, Usage: "int64 seed"},
				cli.Float64Flag{Name: "max-z", Value: 5, Usage: "largest tolerated |z| of any position"},
			},
		},
	}
	return app
}

// withProfile 讓每個子命令都能被 --pprof 包住
func withProfile(fn func(c *cli.Context, lab *cbsample.Lab) error) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		lab, err := buildLab(c)
		if err != nil {
			return err
		}
		return perf.RunPProf(func() error { return fn(c, lab) }, c.GlobalString("pprof"), c.GlobalString("pprof-dir"))
	}
}

func buildLab(c *cli.Context) (*cbsample.Lab, error) {
	mode, err := logger.ParseMode(c.GlobalString("log-mode"))
	if err != nil {
		return nil, err
	}
	opt := cbsample.WithLogger(logger.NewDefaultLogger(mode))
	if dir := c.GlobalString("config"); dir != "" {
		return cbsample.NewAuto(cbsample.Configs(os.DirFS(dir)), opt)
	}
	return demo.NewLab(opt)
}

// resolvePlan --plan 可以是 id 或名稱
func resolvePlan(lab *cbsample.Lab, s string) (plan.PID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errs.Invalid("--plan is required")
	}
	if u, err := strconv.ParseUint(s, 10, 0); err == nil {
		if _, ok := lab.EntryByID(plan.PID(u)); ok {
			return plan.PID(u), nil
		}
		return 0, errs.Invalid("plan id %d not found", u)
	}
	if e, ok := lab.EntryByName(s); ok {
		return e.PID, nil
	}
	return 0, errs.Invalid("plan %q not found", s)
}

func seedFlag(c *cli.Context) (int64, error) {
	if seed := c.Int64("seed"); seed >= 0 {
		return seed, nil
	}
	return cryptoSeed()
}
