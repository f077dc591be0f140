package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "list the registered harnesses",
	Action: listHarnesses,
}

func listHarnesses(ctx *cli.Context) error {
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Harness", "Min size", "Operator"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, h := range harness.All() {
		op := "-"
		if _, ok := pods.Lookup(h.Name()); ok {
			op = "pod"
		}
		table.Append([]string{h.Name(), strconv.Itoa(h.MinSize()), op})
	}
	table.Render()
	return nil
}
