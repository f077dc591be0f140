package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("ml/gemm", 8, gemm) }

// [m][n][k][transB][alpha f32][beta f32][withC][skew][A][B][C?]
func gemm(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	m, n, k := dim(c, 1, 32), dim(c, 1, 32), dim(c, 1, 32)
	in := pods.GEMMIn{M: m, N: n, K: k, TransB: c.Bool(false)}
	in.Alpha = float32(c.FloatIn(-4, 4, 1))
	in.Beta = float32(c.FloatIn(-4, 4, 0))
	withC := c.Bool(false)
	skewA := c.Enum(8, 1) == 0

	in.A = values(c, m*k)
	in.B = values(c, k*n)
	if withC {
		in.C = values(c, m*n)
	}
	if skewA {
		in.A = in.A[:len(in.A)-1]
	}
	_, err := pods.Run(x, "ml/gemm", in)
	return err
}
