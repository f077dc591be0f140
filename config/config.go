// Package config holds the runner settings and their TOML file form.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"reflect"
	"time"

	"github.com/naoina/toml"
)

// Config is everything a run needs besides the harness code itself.
type Config struct {
	Corpus   []string // files or directories of seed inputs
	Include  []string // harness name globs; empty selects every harness
	Exclude  []string
	Random   int   // extra generated inputs per harness
	MaxLen   int   // upper bound on generated input length
	Seed     int64 // generator seed; 0 picks one from the clock
	Workers  int
	Timeout  Duration // per input; 0 disables
	GPU      bool
	Findings string // SQLite path; empty keeps findings in the log only
	Artifact string // directory for crash-/diff- files; empty disables
	Log      LogConfig
}

// LogConfig controls the optional log file. Console output always goes to
// stderr.
type LogConfig struct {
	Level      string // crit|error|warn|info|debug|trace
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Duration is a time.Duration written as "1.5s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Random:  256,
		MaxLen:  1024,
		Workers: 1,
		Timeout: Duration(10 * time.Second),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Load reads path over Default. Keys missing from the file keep their
// defaults; unknown keys are an error.
func Load(file string) (Config, error) {
	cfg := Default()
	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%s, %w", file, err)
	}
	return cfg, nil
}

// Dump writes cfg in the form Load reads.
func Dump(w io.Writer, cfg Config) error {
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

var levels = map[string]bool{"crit": true, "error": true, "warn": true, "info": true, "debug": true, "trace": true}

// Validate checks ranges and patterns.
func (c Config) Validate() error {
	switch {
	case c.Random < 0:
		return fmt.Errorf("random input count must be >= 0, got %d", c.Random)
	case c.MaxLen <= 0:
		return fmt.Errorf("max input length must be > 0, got %d", c.MaxLen)
	case c.Workers <= 0:
		return fmt.Errorf("worker count must be > 0, got %d", c.Workers)
	case c.Timeout < 0:
		return fmt.Errorf("timeout must be >= 0, got %v", time.Duration(c.Timeout))
	case !levels[c.Log.Level]:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	case c.Log.File != "" && c.Log.MaxSizeMB <= 0:
		return errors.New("log file needs MaxSizeMB > 0")
	}
	for _, pats := range [][]string{c.Include, c.Exclude} {
		for _, p := range pats {
			if _, err := path.Match(p, ""); err != nil {
				return fmt.Errorf("harness pattern %q: %w", p, err)
			}
		}
	}
	return nil
}
