package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("nn/swiglu", 4, swiGLU) }

func swiGLU(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.SwiGLUIn{SeqLen: dim(c, 1, 8), InSize: dim(c, 1, 16), Hidden: dim(c, 1, 32)}
	proj := in.InSize * in.Hidden
	in.X = values(c, in.SeqLen*in.InSize)
	in.Gate = values(c, proj)
	in.Up = values(c, proj)
	in.Down = skew(c, values(c, proj))
	in.GateBias = maybe(c, in.Hidden)
	in.UpBias = maybe(c, in.Hidden)
	in.DownBias = maybe(c, in.InSize)
	_, err := pods.Run(x, "nn/swiglu", in)
	return err
}
