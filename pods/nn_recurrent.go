package pods

import "math"

// RNNIn runs an Elman RNN, h_t = tanh(W_ih x_t + W_hh h_{t-1} + b), from h_0 = 0.
type RNNIn struct {
	X              []float32 // [Batch, SeqLen, InSize]
	WIH            []float32 // [Hidden, InSize]
	WHH            []float32 // [Hidden, Hidden]
	Bias           []float32 // optional [Hidden]
	Batch, SeqLen  int
	InSize, Hidden int
}
type RNNOut struct {
	Y     []float32 // [Batch, SeqLen, Hidden]
	Final []float32 // [Batch, Hidden]
}

type RNNPod struct{}

func (RNNPod) Name() string { return "nn/rnn" }

func (RNNPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/rnn"
	a, ok := in.(RNNIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.Batch < 0 || a.SeqLen < 0 || a.InSize <= 0 || a.Hidden <= 0 {
		return nil, opErr(op, ErrInvalidArgument, "batch=%d seq=%d in=%d hidden=%d", a.Batch, a.SeqLen, a.InSize, a.Hidden)
	}
	nx, ok1 := checkedMul(a.Batch, a.SeqLen, a.InSize)
	ny, ok2 := checkedMul(a.Batch, a.SeqLen, a.Hidden)
	nih, ok3 := checkedMul(a.Hidden, a.InSize)
	nhh, ok4 := checkedMul(a.Hidden, a.Hidden)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.X) != nx || len(a.WIH) != nih || len(a.WHH) != nhh {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d WIH=%d WHH=%d", len(a.X), len(a.WIH), len(a.WHH))
	}
	if err := optionalLen(op, "bias", a.Bias, a.Hidden); err != nil {
		return nil, err
	}
	Y := make([]float32, ny)
	final := make([]float32, a.Batch*a.Hidden)
	for b := 0; b < a.Batch; b++ {
		h := final[b*a.Hidden : (b+1)*a.Hidden]
		next := make([]float32, a.Hidden)
		for t := 0; t < a.SeqLen; t++ {
			xt := a.X[(b*a.SeqLen+t)*a.InSize:]
			for j := 0; j < a.Hidden; j++ {
				sum := biasAt(a.Bias, j)
				for i := 0; i < a.InSize; i++ {
					sum += float64(a.WIH[j*a.InSize+i]) * float64(xt[i])
				}
				for p := 0; p < a.Hidden; p++ {
					sum += float64(a.WHH[j*a.Hidden+p]) * float64(h[p])
				}
				next[j] = float32(math.Tanh(sum))
			}
			copy(h, next)
			copy(Y[(b*a.SeqLen+t)*a.Hidden:], h)
		}
	}
	return RNNOut{Y: Y, Final: final}, nil
}

// LSTMCellIn runs one LSTM step. Gate weights are stacked in i, f, g, o order.
type LSTMCellIn struct {
	X      []float32 // [InSize]
	H, C   []float32 // [Hidden]
	WIH    []float32 // [4*Hidden, InSize]
	WHH    []float32 // [4*Hidden, Hidden]
	Bias   []float32 // optional [4*Hidden]
	InSize int
	Hidden int
}
type LSTMCellOut struct{ H, C []float32 }

type LSTMCellPod struct{}

func (LSTMCellPod) Name() string { return "nn/lstm_cell" }

func (LSTMCellPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/lstm_cell"
	a, ok := in.(LSTMCellIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.InSize <= 0 || a.Hidden <= 0 {
		return nil, opErr(op, ErrInvalidArgument, "in=%d hidden=%d", a.InSize, a.Hidden)
	}
	nih, ok1 := checkedMul(4, a.Hidden, a.InSize)
	nhh, ok2 := checkedMul(4, a.Hidden, a.Hidden)
	if !ok1 || !ok2 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.X) != a.InSize || len(a.H) != a.Hidden || len(a.C) != a.Hidden {
		return nil, opErr(op, ErrShapeMismatch, "len(X)=%d len(H)=%d len(C)=%d", len(a.X), len(a.H), len(a.C))
	}
	if len(a.WIH) != nih || len(a.WHH) != nhh {
		return nil, opErr(op, ErrShapeMismatch, "len(WIH)=%d want %d, len(WHH)=%d want %d", len(a.WIH), nih, len(a.WHH), nhh)
	}
	if err := optionalLen(op, "bias", a.Bias, 4*a.Hidden); err != nil {
		return nil, err
	}
	gate := func(row int) float32 {
		sum := biasAt(a.Bias, row)
		for i, v := range a.X {
			sum += float64(a.WIH[row*a.InSize+i]) * float64(v)
		}
		for p, v := range a.H {
			sum += float64(a.WHH[row*a.Hidden+p]) * float64(v)
		}
		return float32(sum)
	}
	H := make([]float32, a.Hidden)
	C := make([]float32, a.Hidden)
	for j := 0; j < a.Hidden; j++ {
		i := sigmoid(gate(j))
		f := sigmoid(gate(a.Hidden + j))
		g := float32(math.Tanh(float64(gate(2*a.Hidden + j))))
		o := sigmoid(gate(3*a.Hidden + j))
		C[j] = f*a.C[j] + i*g
		H[j] = o * float32(math.Tanh(float64(C[j])))
	}
	return LSTMCellOut{H: H, C: C}, nil
}
