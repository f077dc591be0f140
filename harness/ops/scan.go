package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("primitives/scan", 2, scan) }

// [inclusive][n:u16][u32 x n]
func scan(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "primitives/scan"
	in := pods.ScanIn{Inclusive: c.Bool(false)}
	n := int(c.Uint16() % 4097)
	in.In = fuzzbytes.Fill[uint32](c, n)

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	got := out.(pods.ScanOut)
	if !got.OnGPU {
		return nil
	}
	// Integer sums wrap identically on both sides.
	return harness.Compare(op, pods.ScanCPU(in.In, in.Inclusive), got.Out, 0)
}
