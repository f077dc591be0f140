package pods

import "math"

// SwiGLU: down(silu(gate(x)) * up(x)), silu(x) = x * sigmoid(x).
type SwiGLUIn struct {
	X                      []float32 // [SeqLen, InSize]
	Gate, Up               []float32 // [InSize, Hidden]
	Down                   []float32 // [Hidden, InSize]
	GateBias, UpBias       []float32 // optional [Hidden]
	DownBias               []float32 // optional [InSize]
	SeqLen, InSize, Hidden int
}
type SwiGLUOut struct{ Y []float32 } // [SeqLen, InSize]

type SwiGLUPod struct{}

func (SwiGLUPod) Name() string { return "nn/swiglu" }

func (SwiGLUPod) Run(x *ExecContext, in any) (any, error) {
	const op = "nn/swiglu"
	a, ok := in.(SwiGLUIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.SeqLen < 0 || a.InSize <= 0 || a.Hidden <= 0 {
		return nil, opErr(op, ErrInvalidArgument, "seq=%d in=%d hidden=%d", a.SeqLen, a.InSize, a.Hidden)
	}
	nx, ok1 := checkedMul(a.SeqLen, a.InSize)
	nw, ok2 := checkedMul(a.InSize, a.Hidden)
	nh, ok3 := checkedMul(a.SeqLen, a.Hidden)
	if !ok1 || !ok2 || !ok3 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.X) != nx || len(a.Gate) != nw || len(a.Up) != nw || len(a.Down) != nw {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d gate=%d up=%d down=%d", len(a.X), len(a.Gate), len(a.Up), len(a.Down))
	}
	for _, b := range []struct {
		name string
		v    []float32
		n    int
	}{{"gate_bias", a.GateBias, a.Hidden}, {"up_bias", a.UpBias, a.Hidden}, {"down_bias", a.DownBias, a.InSize}} {
		if err := optionalLen(op, b.name, b.v, b.n); err != nil {
			return nil, err
		}
	}

	act := x.scratch(nh)
	defer x.release(act)
	for s := 0; s < a.SeqLen; s++ {
		row := a.X[s*a.InSize : (s+1)*a.InSize]
		for h := 0; h < a.Hidden; h++ {
			g, u := biasAt(a.GateBias, h), biasAt(a.UpBias, h)
			for j, v := range row {
				g += float64(v) * float64(a.Gate[j*a.Hidden+h])
				u += float64(v) * float64(a.Up[j*a.Hidden+h])
			}
			silu := g / (1 + math.Exp(-g))
			act[s*a.Hidden+h] = float32(silu * u)
		}
	}
	Y := make([]float32, nx)
	for s := 0; s < a.SeqLen; s++ {
		for i := 0; i < a.InSize; i++ {
			sum := biasAt(a.DownBias, i)
			for h := 0; h < a.Hidden; h++ {
				sum += float64(act[s*a.Hidden+h]) * float64(a.Down[h*a.InSize+i])
			}
			Y[s*a.InSize+i] = float32(sum)
		}
	}
	return SwiGLUOut{Y: Y}, nil
}

func biasAt(b []float32, i int) float64 {
	if b == nil {
		return 0
	}
	return float64(b[i])
}
