package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("nn/rope", 6, rope) }

// [seq][kv heads][group][half head dim][odd][theta f32][q][k]
func rope(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	seq, kv, group := dim(c, 1, 16), dim(c, 1, 4), dim(c, 1, 4)
	headDim := 2 * dim(c, 1, 16)
	if c.Enum(16, 1) == 0 {
		headDim-- // odd head dims must be refused
	}
	in := pods.RoPEIn{
		SeqLen:  seq,
		QHeads:  kv * group,
		KVHeads: kv,
		HeadDim: headDim,
		Theta:   c.FloatIn(0, 1e6, 0),
	}
	in.Q = values(c, seq*in.QHeads*headDim)
	in.K = skew(c, values(c, seq*kv*headDim))
	_, err := pods.Run(x, "nn/rope", in)
	return err
}
