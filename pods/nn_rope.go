package pods

import "math"

// RoPEIn describes a rotary position embedding over Q and K. Query and key
// head counts may differ (grouped-query attention).
type RoPEIn struct {
	Q, K            []float32 // [SeqLen, QHeads*HeadDim], [SeqLen, KVHeads*HeadDim]
	SeqLen          int
	QHeads, KVHeads int
	HeadDim         int     // must be even
	Theta           float64 // 0 means 10000
}
type RoPEOut struct{ Q, K []float32 }

type RoPEPod struct{}

func (RoPEPod) Name() string { return "nn/rope" }

func (RoPEPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/rope"
	a, ok := in.(RoPEIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.SeqLen < 0 || a.QHeads <= 0 || a.KVHeads <= 0 || a.HeadDim <= 0 || a.HeadDim%2 != 0 {
		return nil, opErr(op, ErrInvalidArgument, "seq=%d heads=%d/%d head_dim=%d", a.SeqLen, a.QHeads, a.KVHeads, a.HeadDim)
	}
	if a.QHeads%a.KVHeads != 0 {
		return nil, opErr(op, ErrShapeMismatch, "%d query heads not a multiple of %d kv heads", a.QHeads, a.KVHeads)
	}
	theta := a.Theta
	if theta == 0 {
		theta = 10000
	}
	if theta <= 1 || math.IsNaN(theta) || math.IsInf(theta, 0) {
		return nil, opErr(op, ErrInvalidArgument, "theta %v", a.Theta)
	}
	nq, ok1 := checkedMul(a.SeqLen, a.QHeads, a.HeadDim)
	nk, ok2 := checkedMul(a.SeqLen, a.KVHeads, a.HeadDim)
	if !ok1 || !ok2 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.Q) != nq || len(a.K) != nk {
		return nil, opErr(op, ErrShapeMismatch, "len(Q)=%d want %d, len(K)=%d want %d", len(a.Q), nq, len(a.K), nk)
	}

	freqs := make([]float64, a.HeadDim/2)
	for i := range freqs {
		freqs[i] = 1.0 / math.Pow(theta, float64(2*i)/float64(a.HeadDim))
	}
	q := append([]float32(nil), a.Q...)
	k := append([]float32(nil), a.K...)
	for pos := 0; pos < a.SeqLen; pos++ {
		for h := 0; h < a.QHeads; h++ {
			rotate(q, (pos*a.QHeads+h)*a.HeadDim, freqs, pos)
		}
		for h := 0; h < a.KVHeads; h++ {
			rotate(k, (pos*a.KVHeads+h)*a.HeadDim, freqs, pos)
		}
	}
	return RoPEOut{Q: q, K: k}, nil
}

func rotate(vec []float32, off int, freqs []float64, pos int) {
	for i, f := range freqs {
		x, y := float64(vec[off+2*i]), float64(vec[off+2*i+1])
		s, c := math.Sincos(f * float64(pos))
		vec[off+2*i] = float32(x*c - y*s)
		vec[off+2*i+1] = float32(x*s + y*c)
	}
}
