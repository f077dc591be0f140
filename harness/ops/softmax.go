package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("ml/softmax", 4, softmax) }

// [variant][rows][cols][temperature f32][alpha f32][logits][mask?]
func softmax(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "ml/softmax"
	// One selector past the list exercises the unknown-variant path.
	v := c.Enum(len(pods.SoftmaxVariants)+1, 0)
	variant := "gumbel"
	if v < len(pods.SoftmaxVariants) {
		variant = pods.SoftmaxVariants[v]
	}
	rows, cols := dim(c, 1, 16), dim(c, 1, 64)
	in := pods.SoftmaxIn{
		Variant:     variant,
		Rows:        rows,
		Cols:        cols,
		Temperature: float32(c.FloatIn(-1, 8, 1)),
		Alpha:       float32(c.FloatIn(0.5, 2.5, 1.5)),
	}
	in.Logits = values(c, rows*cols)
	if variant == pods.SoftmaxMasked {
		in.Mask = fuzzbytes.Fill[bool](c, len(in.Logits))
	}

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	got := out.(pods.SoftmaxOut)
	if !got.OnGPU {
		return nil
	}
	ref, err := pods.Run(x.CPU(), op, in)
	if err != nil {
		return err
	}
	return harness.Compare(op, ref.(pods.SoftmaxOut).Probs, got.Probs, 1e-4)
}
