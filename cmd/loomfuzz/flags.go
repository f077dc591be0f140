package main

import (
	"github.com/urfave/cli/v2"

	"github.com/openfluke/loomfuzz/config"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: crit, error, warn, info, debug or trace",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "also write logfmt logs to this file, rotated by size",
	}

	corpusFlag = &cli.StringSliceFlag{
		Name:  "corpus",
		Usage: "seed input file or directory (repeatable)",
	}
	includeFlag = &cli.StringSliceFlag{
		Name:  "include",
		Usage: "harness name glob to run, e.g. nn/* (repeatable)",
	}
	excludeFlag = &cli.StringSliceFlag{
		Name:  "exclude",
		Usage: "harness name glob to skip (repeatable)",
	}
	randomFlag = &cli.IntFlag{
		Name:  "random",
		Usage: "generated inputs per harness",
	}
	maxLenFlag = &cli.IntFlag{
		Name:  "maxlen",
		Usage: "maximum generated input length",
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "generator seed (0 picks one)",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "parallel executions",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-input time limit (0 disables)",
	}
	gpuFlag = &cli.BoolFlag{
		Name:  "gpu",
		Usage: "dispatch GPU-capable operators to WebGPU and diff against the CPU",
	}
	findingsFlag = &cli.StringFlag{
		Name:  "findings",
		Usage: "SQLite findings database",
	}
	artifactFlag = &cli.StringFlag{
		Name:  "artifacts",
		Usage: "directory for crash- and diff- input files",
	}

	harnessFlag = &cli.StringFlag{
		Name:  "harness",
		Usage: "harness name",
	}
	dumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "print a hex dump of each input",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output JSON instead of a table",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "write the raw input to this file",
	}
)

var runFlags = []cli.Flag{
	corpusFlag,
	includeFlag,
	excludeFlag,
	randomFlag,
	maxLenFlag,
	seedFlag,
	workersFlag,
	timeoutFlag,
	gpuFlag,
	findingsFlag,
	artifactFlag,
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then any flag set on the command line.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if file := ctx.String(configFlag.Name); file != "" {
		var err error
		if cfg, err = config.Load(file); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(corpusFlag.Name) {
		cfg.Corpus = ctx.StringSlice(corpusFlag.Name)
	}
	if ctx.IsSet(includeFlag.Name) {
		cfg.Include = ctx.StringSlice(includeFlag.Name)
	}
	if ctx.IsSet(excludeFlag.Name) {
		cfg.Exclude = ctx.StringSlice(excludeFlag.Name)
	}
	if ctx.IsSet(randomFlag.Name) {
		cfg.Random = ctx.Int(randomFlag.Name)
	}
	if ctx.IsSet(maxLenFlag.Name) {
		cfg.MaxLen = ctx.Int(maxLenFlag.Name)
	}
	if ctx.IsSet(seedFlag.Name) {
		cfg.Seed = ctx.Int64(seedFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.IsSet(timeoutFlag.Name) {
		cfg.Timeout = config.Duration(ctx.Duration(timeoutFlag.Name))
	}
	if ctx.IsSet(gpuFlag.Name) {
		cfg.GPU = ctx.Bool(gpuFlag.Name)
	}
	if ctx.IsSet(findingsFlag.Name) {
		cfg.Findings = ctx.String(findingsFlag.Name)
	}
	if ctx.IsSet(artifactFlag.Name) {
		cfg.Artifact = ctx.String(artifactFlag.Name)
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Level = ctx.String(verbosityFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.Log.File = ctx.String(logFileFlag.Name)
	}
	return cfg, cfg.Validate()
}
