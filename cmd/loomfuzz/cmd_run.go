package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	log "github.com/inconshreveable/log15"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/config"
	"github.com/openfluke/loomfuzz/detector"
	"github.com/openfluke/loomfuzz/findings"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
	"github.com/openfluke/loomfuzz/runner"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "run harnesses over the corpus and generated inputs",
	Description: `
Every selected harness sees every corpus input and --random generated ones.
Faults and GPU/CPU divergences are logged, stored in the --findings database
and written as artifacts. The exit status is 1 when anything faulted.`,
	Flags:  runFlags,
	Action: runHarnesses,
}

var watchCommand = &cli.Command{
	Name:      "watch",
	Usage:     "run harnesses on every file that appears in a directory",
	ArgsUsage: "<dir>",
	Flags:     runFlags,
	Action:    watchCorpus,
}

// session is the state run and watch share.
type session struct {
	cfg     config.Config
	x       *pods.ExecContext
	store   *findings.Store
	release func()
	hs      []harness.Harness
}

func openSession(ctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	hs, err := runner.Select(harness.All(), cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, hs: hs, release: func() {}}
	s.x, s.release = execContext(cfg)
	if cfg.Findings != "" {
		if s.store, err = findings.Open(cfg.Findings); err != nil {
			s.release()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn("Closing findings failed", "err", err)
		}
	}
	s.release()
}

// execContext probes the host and attaches the GPU when asked for and
// available. The returned func releases the device.
func execContext(cfg config.Config) (*pods.ExecContext, func()) {
	rep, err := detector.Probe()
	if err != nil {
		log.Debug("GPU probe unavailable", "err", err)
	}
	x := pods.NewContext(rep)
	if !cfg.GPU {
		return x, func() {}
	}
	hooks, release, err := openGPU()
	if err != nil {
		log.Warn("GPU requested but unavailable, running CPU only", "err", err)
		return x, func() {}
	}
	log.Info("GPU backend attached", "adapter", rep.Name)
	return x.WithGPU(hooks), release
}

func runHarnesses(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	inputs, seed, err := runner.Inputs(s.cfg)
	if err != nil {
		return err
	}
	log.Info("Inputs ready", "corpus", len(inputs)-s.cfg.Random, "random", s.cfg.Random, "seed", seed)

	sctx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sum, err := runner.New(s.cfg, s.x, s.store).Run(sctx, s.hs, inputs)
	printSummary(ctx, sum)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if n := sum.Total(harness.Fault); n > 0 {
		return cli.Exit(fmt.Sprintf("%d faulting executions", n), 1)
	}
	return nil
}

func watchCorpus(ctx *cli.Context) error {
	dir := ctx.Args().First()
	if dir == "" {
		return fmt.Errorf("watch needs a directory")
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sctx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info("Watching corpus", "dir", dir, "harnesses", len(s.hs))
	sum, err := runner.New(s.cfg, s.x, s.store).Watch(sctx, dir, s.hs)
	printSummary(ctx, sum)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var statusColumns = []harness.Status{harness.Accepted, harness.Starved, harness.Rejected, harness.Diverged, harness.Fault}

func printSummary(ctx *cli.Context, sum runner.Summary) {
	w := ctx.App.Writer
	table := tablewriter.NewWriter(w)
	header := []string{"Harness"}
	for _, st := range statusColumns {
		header = append(header, st.String())
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, h := range sortedKeys(sum.Counts) {
		row := []string{h}
		for _, st := range statusColumns {
			cell := strconv.Itoa(sum.Counts[h][st])
			switch {
			case st == harness.Fault && sum.Counts[h][st] > 0:
				cell = red(cell)
			case st == harness.Diverged && sum.Counts[h][st] > 0:
				cell = yellow(cell)
			}
			row = append(row, cell)
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(w, "run %s: %d inputs, %d new findings, %v, rss %.1f MiB\n",
		sum.RunID, sum.Inputs, sum.New, sum.Elapsed.Round(1e6), float64(sum.RSS)/(1<<20))
}
