package pods

import (
	"errors"
	"math"
	"sort"
)

// Softmax variants.
const (
	SoftmaxStandard    = "standard"
	SoftmaxTemperature = "temperature"
	SoftmaxGrid        = "grid"
	SoftmaxMasked      = "masked"
	SoftmaxSparse      = "sparsemax"
	SoftmaxEntmax      = "entmax"
)

// SoftmaxVariants lists every variant in a stable order.
var SoftmaxVariants = []string{SoftmaxStandard, SoftmaxTemperature, SoftmaxGrid, SoftmaxMasked, SoftmaxSparse, SoftmaxEntmax}

type SoftmaxIn struct {
	Logits      []float32
	Variant     string  // "" means standard
	Temperature float32 // 0 means 1
	Rows, Cols  int     // grid: independent softmax per row
	Mask        []bool  // masked: false positions are excluded
	Alpha       float32 // entmax: 1 = softmax, 2 = sparsemax
}
type SoftmaxOut struct {
	Probs []float32
	OnGPU bool
}

type SoftmaxPod struct{}

func (SoftmaxPod) Name() string { return "ml/softmax" }

func (SoftmaxPod) Run(x *ExecContext, in any) (any, error) {
	const op = "ml/softmax"
	args, ok := in.(SoftmaxIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if len(args.Logits) == 0 {
		return nil, opErr(op, ErrInvalidArgument, "empty logits")
	}
	temp := args.Temperature
	if temp == 0 {
		temp = 1
	}
	if temp < 0 || !finite32(temp) {
		return nil, opErr(op, ErrInvalidArgument, "temperature %v", args.Temperature)
	}

	switch args.Variant {
	case "", SoftmaxStandard, SoftmaxTemperature:
		if g := x.hooks(); g != nil && temp == 1 {
			probs, err := g.DispatchSoftmaxF32(args.Logits)
			if err == nil {
				return SoftmaxOut{Probs: probs, OnGPU: true}, nil
			}
			if !errors.Is(err, ErrNoGPU) {
				return nil, err
			}
		}
		return SoftmaxOut{Probs: softmax(args.Logits, temp)}, nil

	case SoftmaxGrid:
		if args.Rows <= 0 || args.Cols <= 0 {
			return nil, opErr(op, ErrInvalidArgument, "grid %dx%d", args.Rows, args.Cols)
		}
		if n, ok := checkedMul(args.Rows, args.Cols); !ok || n != len(args.Logits) {
			return nil, opErr(op, ErrShapeMismatch, "grid %dx%d for %d logits", args.Rows, args.Cols, len(args.Logits))
		}
		out := make([]float32, len(args.Logits))
		for r := 0; r < args.Rows; r++ {
			row := args.Logits[r*args.Cols : (r+1)*args.Cols]
			copy(out[r*args.Cols:], softmax(row, temp))
		}
		return SoftmaxOut{Probs: out}, nil

	case SoftmaxMasked:
		if len(args.Mask) != len(args.Logits) {
			return nil, opErr(op, ErrShapeMismatch, "mask %d for %d logits", len(args.Mask), len(args.Logits))
		}
		masked := make([]float32, len(args.Logits))
		for i, v := range args.Logits {
			if args.Mask[i] {
				masked[i] = v
			} else {
				masked[i] = -1e9
			}
		}
		return SoftmaxOut{Probs: softmax(masked, temp)}, nil

	case SoftmaxSparse:
		return SoftmaxOut{Probs: sparsemax(args.Logits)}, nil

	case SoftmaxEntmax:
		if args.Alpha < 1 || args.Alpha > 2 || !finite32(args.Alpha) {
			return nil, opErr(op, ErrInvalidArgument, "entmax alpha %v outside [1, 2]", args.Alpha)
		}
		return SoftmaxOut{Probs: entmax(args.Logits, args.Alpha)}, nil
	}
	return nil, opErr(op, ErrUnsupportedType, "variant %q", args.Variant)
}

// softmax is the max-subtracted exponential normalisation of logits/temp.
func softmax(logits []float32, temp float32) []float32 {
	mx := logits[0] / temp
	for _, v := range logits[1:] {
		if v/temp > mx {
			mx = v / temp
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v/temp - mx))
		out[i] = float32(e)
		sum += e
	}
	inv := float32(1.0 / sum)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// sparsemax projects logits onto the probability simplex and can produce
// exact zeros.
func sparsemax(logits []float32) []float32 {
	sorted := append([]float32(nil), logits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	var cum float32
	k := 0
	for i, v := range sorted {
		cum += v
		if v-(cum-1)/float32(i+1) > 0 {
			k = i + 1
		} else {
			break
		}
	}
	var tau float32
	if k > 0 {
		var s float32
		for _, v := range sorted[:k] {
			s += v
		}
		tau = (s - 1) / float32(k)
	}
	out := make([]float32, len(logits))
	for i, v := range logits {
		if d := v - tau; d > 0 {
			out[i] = d
		}
	}
	return out
}

// entmax blends softmax and sparsemax by alpha and renormalises.
func entmax(logits []float32, alpha float32) []float32 {
	w := alpha - 1
	soft := softmax(logits, 1)
	sparse := sparsemax(logits)
	out := make([]float32, len(logits))
	var sum float32
	for i := range out {
		out[i] = (1-w)*soft[i] + w*sparse[i]
		sum += out[i]
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// =============================================================================
// Normalisation
// =============================================================================

type LayerNormIn struct {
	X           []float32
	Size        int       // normalised width; 0 means len(X)
	Gamma, Beta []float32 // optional, len Size
	Eps         float32   // 0 means 1e-5
}
type LayerNormOut struct{ Y []float32 }

type LayerNormPod struct{}

func (LayerNormPod) Name() string { return "ml/layernorm" }

func (LayerNormPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "ml/layernorm"
	args, ok := in.(LayerNormIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	size, eps, err := normParams(op, len(args.X), args.Size, args.Eps, 1e-5)
	if err != nil {
		return nil, err
	}
	if err := optionalLen(op, "gamma", args.Gamma, size); err != nil {
		return nil, err
	}
	if err := optionalLen(op, "beta", args.Beta, size); err != nil {
		return nil, err
	}
	Y := make([]float32, len(args.X))
	for start := 0; start < len(args.X); start += size {
		row := args.X[start : start+size]
		var mean, m2 float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= float64(size)
		for _, v := range row {
			d := float64(v) - mean
			m2 += d * d
		}
		den := 1.0 / math.Sqrt(m2/float64(size)+eps)
		for i, v := range row {
			y := (float64(v) - mean) * den
			if args.Gamma != nil {
				y *= float64(args.Gamma[i])
			}
			if args.Beta != nil {
				y += float64(args.Beta[i])
			}
			Y[start+i] = float32(y)
		}
	}
	return LayerNormOut{Y: Y}, nil
}

type RMSNormIn struct {
	X        []float32
	Residual []float32 // optional, added to X before normalising
	Size     int
	Gamma    []float32
	Eps      float32 // 0 means 1e-6
}
type RMSNormOut struct{ Y []float32 }

type RMSNormPod struct{}

func (RMSNormPod) Name() string { return "ml/rmsnorm" }

func (RMSNormPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "ml/rmsnorm"
	args, ok := in.(RMSNormIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	size, eps, err := normParams(op, len(args.X), args.Size, args.Eps, 1e-6)
	if err != nil {
		return nil, err
	}
	if err := optionalLen(op, "residual", args.Residual, len(args.X)); err != nil {
		return nil, err
	}
	if err := optionalLen(op, "gamma", args.Gamma, size); err != nil {
		return nil, err
	}
	Y := make([]float32, len(args.X))
	for start := 0; start < len(args.X); start += size {
		var ss float64
		for i := start; i < start+size; i++ {
			v := float64(args.X[i])
			if args.Residual != nil {
				v += float64(args.Residual[i])
			}
			Y[i] = float32(v)
			ss += v * v
		}
		rms := math.Sqrt(ss/float64(size) + eps)
		for i := start; i < start+size; i++ {
			y := float64(Y[i]) / rms
			if args.Gamma != nil {
				y *= float64(args.Gamma[i-start])
			}
			Y[i] = float32(y)
		}
	}
	return RMSNormOut{Y: Y}, nil
}

func normParams(op string, n, size int, eps float32, defEps float64) (int, float64, error) {
	if n == 0 {
		return 0, 0, opErr(op, ErrInvalidArgument, "empty input")
	}
	if size == 0 {
		size = n
	}
	if size < 0 || n%size != 0 {
		return 0, 0, opErr(op, ErrShapeMismatch, "norm size %d for %d values", size, n)
	}
	e := float64(eps)
	if e == 0 {
		e = defEps
	}
	if e < 0 || math.IsNaN(e) || math.IsInf(e, 0) {
		return 0, 0, opErr(op, ErrInvalidArgument, "eps %v", eps)
	}
	return size, e, nil
}

func optionalLen(op, name string, v []float32, want int) error {
	if v != nil && len(v) != want {
		return opErr(op, ErrShapeMismatch, "len(%s)=%d, want %d", name, len(v), want)
	}
	return nil
}
