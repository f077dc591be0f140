package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("ml/rmsnorm", 4, rmsNorm) }

// [rows][size][eps f32][x][residual?][gamma?]
func rmsNorm(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	rows, size := dim(c, 1, 16), dim(c, 1, 64)
	in := pods.RMSNormIn{Size: size, Eps: float32(c.FloatIn(0, 0.1, 1e-6))}
	in.X = values(c, rows*size)
	in.Residual = maybe(c, rows*size)
	in.Gamma = maybe(c, size)
	_, err := pods.Run(x, "ml/rmsnorm", in)
	return err
}
