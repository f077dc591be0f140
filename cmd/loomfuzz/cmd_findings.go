package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/findings"
)

var findingsCommand = &cli.Command{
	Name:  "findings",
	Usage: "inspect the findings database",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list stored findings",
			Flags:  []cli.Flag{findingsFlag, harnessFlag},
			Action: listFindings,
		},
		{
			Name:      "show",
			Usage:     "print one finding and its input",
			ArgsUsage: "<key>",
			Flags:     []cli.Flag{findingsFlag, outFlag},
			Action:    showFinding,
		},
	},
}

func openFindings(ctx *cli.Context) (*findings.Store, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Findings == "" {
		return nil, fmt.Errorf("no findings database (set --findings or Findings in the config)")
	}
	return findings.Open(cfg.Findings)
}

func listFindings(ctx *cli.Context) error {
	store, err := openFindings(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	fs, err := store.List(ctx.Context, ctx.String(harnessFlag.Name))
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Key", "Harness", "Status", "Hits", "First seen", "Message"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, f := range fs {
		table.Append([]string{
			findings.ShortKey(f.Key),
			f.Harness,
			f.Status.String(),
			strconv.Itoa(f.Hits),
			f.FirstSeen.Local().Format(time.DateTime),
			truncate(f.Message, 60),
		})
	}
	table.Render()
	return nil
}

func showFinding(ctx *cli.Context) error {
	key := ctx.Args().First()
	if key == "" {
		return fmt.Errorf("show needs a finding key")
	}
	store, err := openFindings(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	f, err := store.Get(ctx.Context, key)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	fmt.Fprintf(w, "key:     %s\nharness: %s\nstatus:  %s\nhits:    %d\nrun:     %s\noffset:  %d\nerror:   %s\n",
		f.Key, f.Harness, f.Status, f.Hits, f.RunID, f.Offset, f.Message)
	if f.Stack != "" {
		fmt.Fprintf(w, "stack:\n%s", f.Stack)
	}
	fmt.Fprint(w, spew.Sdump(f.Input))
	if out := ctx.String(outFlag.Name); out != "" {
		return os.WriteFile(out, f.Input, 0o644)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
