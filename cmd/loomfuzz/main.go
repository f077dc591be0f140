// loomfuzz runs the operator harnesses outside `go test`: over a corpus, over
// generated inputs, or following a directory, and files what faults.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	_ "github.com/openfluke/loomfuzz/harness/ops"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "loomfuzz",
		Usage: "fuzz the loom tensor operators",
		Flags: []cli.Flag{
			configFlag,
			verbosityFlag,
			logFileFlag,
		},
		Before: setupLogging,
		After:  closeLogging,
		Commands: []*cli.Command{
			listCommand,
			runCommand,
			watchCommand,
			decodeCommand,
			findingsCommand,
			envCommand,
			dumpConfigCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
