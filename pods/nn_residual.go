package pods

type ResidualIn struct {
	X, Skip []float32
	Scale   float32 // applied to Skip; 0 means 1
}
type ResidualOut struct{ Y []float32 }

type ResidualPod struct{}

func (ResidualPod) Name() string { return "nn/residual" }

func (ResidualPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/residual"
	a, ok := in.(ResidualIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if len(a.X) != len(a.Skip) {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d len(Skip)=%d", len(a.X), len(a.Skip))
	}
	s := a.Scale
	if s == 0 {
		s = 1
	}
	Y := make([]float32, len(a.X))
	for i, v := range a.X {
		Y[i] = v + s*a.Skip[i]
	}
	return ResidualOut{Y: Y}, nil
}
