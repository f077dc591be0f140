package pods

type DenseIn struct {
	X               []float32 // [Batch, InSize]
	W               []float32 // [InSize, OutSize]
	Bias            []float32 // optional [OutSize]
	Batch           int
	InSize, OutSize int
	Act             Activation
}
type DenseOut struct {
	Pre, Post []float32 // [Batch, OutSize]
}

type DensePod struct{}

func (DensePod) Name() string { return "nn/dense" }

func (DensePod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/dense"
	a, ok := in.(DenseIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if !a.Act.valid() {
		return nil, opErr(op, ErrUnsupportedType, "activation %d", a.Act)
	}
	nx, ok1 := checkedMul(a.Batch, a.InSize)
	nw, ok2 := checkedMul(a.InSize, a.OutSize)
	ny, ok3 := checkedMul(a.Batch, a.OutSize)
	if !ok1 || !ok2 || !ok3 {
		return nil, opErr(op, ErrInvalidArgument, "batch=%d in=%d out=%d", a.Batch, a.InSize, a.OutSize)
	}
	if len(a.X) != nx || len(a.W) != nw {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d len(W)=%d", len(a.X), len(a.W))
	}
	if err := optionalLen(op, "bias", a.Bias, a.OutSize); err != nil {
		return nil, err
	}
	pre := make([]float32, ny)
	post := make([]float32, ny)
	for b := 0; b < a.Batch; b++ {
		for o := 0; o < a.OutSize; o++ {
			var sum float32
			if a.Bias != nil {
				sum = a.Bias[o]
			}
			for i := 0; i < a.InSize; i++ {
				sum += a.X[b*a.InSize+i] * a.W[i*a.OutSize+o]
			}
			pre[b*a.OutSize+o] = sum
			post[b*a.OutSize+o] = Activate(sum, a.Act)
		}
	}
	return DenseOut{Pre: pre, Post: post}, nil
}
