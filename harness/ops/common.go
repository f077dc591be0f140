package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

// valueLimit bounds decoded activations and weights so reductions stay
// finite and CPU/GPU diffs stay meaningful.
const valueLimit = 1e4

func register(name string, minSize int, run harness.RunFunc) {
	harness.Register(harness.New(name, minSize, run))
}

// values reads n float32s clamped to ±valueLimit; NaN folds to -valueLimit.
func values(c *fuzzbytes.Cursor, n int) []float32 {
	v := fuzzbytes.Fill[float32](c, n)
	for i, f := range v {
		v[i] = float32(fuzzbytes.Clamp(float64(f), -valueLimit, valueLimit))
	}
	return v
}

// maybe reads a presence flag and then, if set, n values.
func maybe(c *fuzzbytes.Cursor, n int) []float32 {
	if !c.Bool(false) {
		return nil
	}
	return values(c, n)
}

// dim reads a one-byte size in [min, max].
func dim(c *fuzzbytes.Cursor, min, max int64) int {
	return int(c.Dimension8(min, max))
}

// skew drops the last element of v for one selector value in eight, so a
// share of inputs reach the operator's shape checks.
func skew(c *fuzzbytes.Cursor, v []float32) []float32 {
	if c.Enum(8, 1) == 0 && len(v) > 0 {
		return v[:len(v)-1]
	}
	return v
}

// activation reads an activation selector that can land one past the valid
// range.
func activation(c *fuzzbytes.Cursor) pods.Activation {
	return pods.Activation(c.Enum(pods.NumActivations+1, 0))
}
