package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/harness"
)

var decodeCommand = &cli.Command{
	Name:      "decode",
	Aliases:   []string{"repro"},
	Usage:     "replay input files against one harness and explain the outcome",
	ArgsUsage: "<file> [<file>...]",
	Flags:     []cli.Flag{harnessFlag, gpuFlag, dumpFlag},
	Action:    replay,
}

func replay(ctx *cli.Context) error {
	name := ctx.String(harnessFlag.Name)
	h, ok := harness.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown harness %q (see loomfuzz list)", name)
	}
	if ctx.NArg() == 0 {
		return fmt.Errorf("no input files")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	x, release := execContext(cfg)
	defer release()

	w := ctx.App.Writer
	faults := 0
	for _, file := range ctx.Args().Slice() {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		res := harness.Execute(x, h, data)
		status := res.Status.String()
		if res.Interesting() {
			status = color.New(color.FgRed, color.Bold).Sprint(status)
		}
		fmt.Fprintf(w, "%s: %s after %d of %d bytes in %v\n", file, status, res.Offset, len(data), res.Elapsed)
		if res.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", res.Err)
		}
		if res.Stack != "" {
			fmt.Fprintf(w, "  stack:\n%s", res.Stack)
		}
		if ctx.Bool(dumpFlag.Name) {
			fmt.Fprint(w, spew.Sdump(data))
		}
		if res.Status == harness.Fault {
			faults++
		}
	}
	if faults > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d inputs fault", faults, ctx.NArg()), 1)
	}
	return nil
}
