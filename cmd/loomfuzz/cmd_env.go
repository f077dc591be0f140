package main

import (
	"fmt"

	log "github.com/inconshreveable/log15"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/config"
	"github.com/openfluke/loomfuzz/detector"
)

var envCommand = &cli.Command{
	Name:   "env",
	Usage:  "describe the host and GPU adapter",
	Flags:  []cli.Flag{jsonFlag},
	Action: showEnv,
}

var dumpConfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "print the effective configuration as TOML",
	Flags:  runFlags,
	Action: dumpConfig,
}

func showEnv(ctx *cli.Context) error {
	w := ctx.App.Writer
	if ctx.Bool(jsonFlag.Name) {
		s, err := detector.DetectJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
	rep, err := detector.Probe()
	if err != nil {
		log.Info("No GPU adapter", "reason", err)
	}
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	rows := [][]string{
		{"runtime", rep.Runtime},
		{"host", fmt.Sprintf("%s/%s, %d CPUs, %s", rep.Host.GOOS, rep.Host.GOARCH, rep.Host.NumCPU, rep.Host.GoVersion)},
		{"gpu", fmt.Sprint(rep.GPU)},
	}
	if rep.GPU {
		rows = append(rows,
			[]string{"adapter", fmt.Sprintf("%s (%s, %s)", rep.Name, rep.Backend, rep.AdapterType)},
			[]string{"driver", rep.Driver},
			[]string{"workgroup", fmt.Sprintf("%dx%dx%d", rep.Recommended.WorkgroupX, rep.Recommended.WorkgroupY, rep.Recommended.WorkgroupZ)},
			[]string{"max buffer", fmt.Sprint(rep.Limits.MaxBufferSize)},
		)
	}
	rows = append(rows, []string{"budget", fmt.Sprintf("%d MiB", rep.Recommended.BudgetBytes>>20)})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return config.Dump(ctx.App.Writer, cfg)
}
