package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("nn/dense", 5, dense) }

// [batch][in][out][act][x][w][bias?]
func dense(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.DenseIn{Batch: dim(c, 1, 8), InSize: dim(c, 1, 32), OutSize: dim(c, 1, 32)}
	in.Act = activation(c)
	in.X = values(c, in.Batch*in.InSize)
	in.W = skew(c, values(c, in.InSize*in.OutSize))
	in.Bias = maybe(c, in.OutSize)
	_, err := pods.Run(x, "nn/dense", in)
	return err
}
