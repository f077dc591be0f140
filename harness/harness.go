// Package harness defines the contract every operator harness satisfies and
// the single boundary that turns a harness run into a fuzzer verdict.
package harness

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

// Harness decodes one input from c and drives one operator with it.
type Harness interface {
	Name() string
	// MinSize is the smallest input worth decoding; shorter inputs are
	// Starved without being read.
	MinSize() int
	Run(x *pods.ExecContext, c *fuzzbytes.Cursor) error
}

// RunFunc is the body of a harness.
type RunFunc func(x *pods.ExecContext, c *fuzzbytes.Cursor) error

type funcHarness struct {
	name    string
	minSize int
	run     RunFunc
}

// New builds a Harness from its parts.
func New(name string, minSize int, run RunFunc) Harness {
	return funcHarness{name: name, minSize: minSize, run: run}
}

func (h funcHarness) Name() string { return h.name }
func (h funcHarness) MinSize() int { return h.minSize }
func (h funcHarness) Run(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	return h.run(x, c)
}
