package main

import (
	"io"
	"os"

	log "github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFile is the rotated log file opened by setupLogging, if any.
var logFile io.Closer

// setupLogging points the root logger at stderr, colored on a terminal, and
// at the configured log file.
func setupLogging(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	lvl, err := log.LvlFromString(cfg.Log.Level)
	if err != nil {
		return err
	}
	var console log.Handler
	if fd := os.Stderr.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		console = log.StreamHandler(colorable.NewColorableStderr(), log.TerminalFormat())
	} else {
		console = log.StreamHandler(os.Stderr, log.LogfmtFormat())
	}
	handlers := []log.Handler{console}
	if cfg.Log.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		logFile = lj
		handlers = append(handlers, log.StreamHandler(lj, log.LogfmtFormat()))
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.MultiHandler(handlers...)))
	return nil
}

func closeLogging(*cli.Context) error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
