package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() {
	register("nn/conv1d", 8, conv1D)
	register("nn/conv2d", 9, conv2D)
}

// geom reads [batch][channels][filters][kernel][stride][padding]. Stride may
// come back 0 so the geometry checks get exercised.
func geom(c *fuzzbytes.Cursor) pods.ConvGeom {
	return pods.ConvGeom{
		Batch:      dim(c, 1, 4),
		InChannels: dim(c, 1, 4),
		Filters:    dim(c, 1, 8),
		KernelSize: dim(c, 1, 5),
		Stride:     c.Range(0, 3),
		Padding:    c.Range(0, 2),
	}
}

func conv1D(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.Conv1DIn{Geom: geom(c), SeqLen: dim(c, 1, 64)}
	in.Act = activation(c)
	g := in.Geom
	in.X = values(c, g.Batch*g.InChannels*in.SeqLen)
	in.Kernel = skew(c, values(c, g.Filters*g.InChannels*g.KernelSize))
	in.Bias = maybe(c, g.Filters)
	_, err := pods.Run(x, "nn/conv1d", in)
	return err
}

func conv2D(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.Conv2DIn{Geom: geom(c), H: dim(c, 1, 16), W: dim(c, 1, 16)}
	in.Act = activation(c)
	g := in.Geom
	in.X = values(c, g.Batch*g.InChannels*in.H*in.W)
	in.Kernel = skew(c, values(c, g.Filters*g.InChannels*g.KernelSize*g.KernelSize))
	in.Bias = maybe(c, g.Filters)
	_, err := pods.Run(x, "nn/conv2d", in)
	return err
}
