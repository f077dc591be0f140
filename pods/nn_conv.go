package pods

// =============================================================================
// Convolutions, NCHW / NCL layout, square kernels
// =============================================================================

type ConvGeom struct {
	Batch, InChannels, Filters int
	KernelSize, Stride, Padding int
}

// outLen returns the output extent along one axis of length n.
func (g ConvGeom) outLen(n int) int {
	return (n+2*g.Padding-g.KernelSize)/g.Stride + 1
}

func (g ConvGeom) check(op string, extents ...int) error {
	if g.Batch < 0 || g.InChannels <= 0 || g.Filters <= 0 {
		return opErr(op, ErrInvalidArgument, "batch=%d in=%d filters=%d", g.Batch, g.InChannels, g.Filters)
	}
	if g.KernelSize <= 0 || g.Stride <= 0 || g.Padding < 0 {
		return opErr(op, ErrInvalidArgument, "kernel=%d stride=%d padding=%d", g.KernelSize, g.Stride, g.Padding)
	}
	for _, n := range extents {
		if n <= 0 || n+2*g.Padding < g.KernelSize {
			return opErr(op, ErrShapeMismatch, "extent %d too small for kernel %d padding %d", n, g.KernelSize, g.Padding)
		}
	}
	return nil
}

type Conv1DIn struct {
	Geom   ConvGeom
	SeqLen int
	X      []float32 // [Batch, InChannels, SeqLen]
	Kernel []float32 // [Filters, InChannels, KernelSize]
	Bias   []float32 // optional [Filters]
	Act    Activation
}
type Conv1DOut struct {
	Pre, Post []float32 // [Batch, Filters, OutLen]
	OutLen    int
}

type Conv1DPod struct{}

func (Conv1DPod) Name() string { return "nn/conv1d" }

func (Conv1DPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/conv1d"
	a, ok := in.(Conv1DIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	g := a.Geom
	if err := g.check(op, a.SeqLen); err != nil {
		return nil, err
	}
	if !a.Act.valid() {
		return nil, opErr(op, ErrUnsupportedType, "activation %d", a.Act)
	}
	outLen := g.outLen(a.SeqLen)
	nx, ok1 := checkedMul(g.Batch, g.InChannels, a.SeqLen)
	nk, ok2 := checkedMul(g.Filters, g.InChannels, g.KernelSize)
	ny, ok3 := checkedMul(g.Batch, g.Filters, outLen)
	if !ok1 || !ok2 || !ok3 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.X) != nx || len(a.Kernel) != nk {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d want %d, len(Kernel)=%d want %d", len(a.X), nx, len(a.Kernel), nk)
	}
	if err := optionalLen(op, "bias", a.Bias, g.Filters); err != nil {
		return nil, err
	}
	pre := make([]float32, ny)
	post := make([]float32, ny)
	for b := 0; b < g.Batch; b++ {
		for f := 0; f < g.Filters; f++ {
			for o := 0; o < outLen; o++ {
				var sum float32
				if a.Bias != nil {
					sum = a.Bias[f]
				}
				for ic := 0; ic < g.InChannels; ic++ {
					for k := 0; k < g.KernelSize; k++ {
						pos := o*g.Stride + k - g.Padding
						if pos >= 0 && pos < a.SeqLen {
							sum += a.X[(b*g.InChannels+ic)*a.SeqLen+pos] * a.Kernel[(f*g.InChannels+ic)*g.KernelSize+k]
						}
					}
				}
				idx := (b*g.Filters+f)*outLen + o
				pre[idx] = sum
				post[idx] = Activate(sum, a.Act)
			}
		}
	}
	return Conv1DOut{Pre: pre, Post: post, OutLen: outLen}, nil
}

type Conv2DIn struct {
	Geom   ConvGeom
	H, W   int
	X      []float32 // [Batch, InChannels, H, W]
	Kernel []float32 // [Filters, InChannels, K, K]
	Bias   []float32 // optional [Filters]
	Act    Activation
}
type Conv2DOut struct {
	Pre, Post  []float32 // [Batch, Filters, OutH, OutW]
	OutH, OutW int
}

type Conv2DPod struct{}

func (Conv2DPod) Name() string { return "nn/conv2d" }

func (Conv2DPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/conv2d"
	a, ok := in.(Conv2DIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	g := a.Geom
	if err := g.check(op, a.H, a.W); err != nil {
		return nil, err
	}
	if !a.Act.valid() {
		return nil, opErr(op, ErrUnsupportedType, "activation %d", a.Act)
	}
	outH, outW := g.outLen(a.H), g.outLen(a.W)
	K := g.KernelSize
	nx, ok1 := checkedMul(g.Batch, g.InChannels, a.H, a.W)
	nk, ok2 := checkedMul(g.Filters, g.InChannels, K, K)
	ny, ok3 := checkedMul(g.Batch, g.Filters, outH, outW)
	if !ok1 || !ok2 || !ok3 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.X) != nx || len(a.Kernel) != nk {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d want %d, len(Kernel)=%d want %d", len(a.X), nx, len(a.Kernel), nk)
	}
	if err := optionalLen(op, "bias", a.Bias, g.Filters); err != nil {
		return nil, err
	}
	pre := make([]float32, ny)
	post := make([]float32, ny)
	for b := 0; b < g.Batch; b++ {
		for f := 0; f < g.Filters; f++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					var sum float32
					if a.Bias != nil {
						sum = a.Bias[f]
					}
					for ic := 0; ic < g.InChannels; ic++ {
						for kh := 0; kh < K; kh++ {
							ih := oh*g.Stride + kh - g.Padding
							if ih < 0 || ih >= a.H {
								continue
							}
							for kw := 0; kw < K; kw++ {
								iw := ow*g.Stride + kw - g.Padding
								if iw < 0 || iw >= a.W {
									continue
								}
								xi := ((b*g.InChannels+ic)*a.H+ih)*a.W + iw
								ki := ((f*g.InChannels+ic)*K+kh)*K + kw
								sum += a.X[xi] * a.Kernel[ki]
							}
						}
					}
					idx := ((b*g.Filters+f)*outH+oh)*outW + ow
					pre[idx] = sum
					post[idx] = Activate(sum, a.Act)
				}
			}
		}
	}
	return Conv2DOut{Pre: pre, Post: post, OutH: outH, OutW: outW}, nil
}
