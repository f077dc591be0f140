package pods

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/tensor"
)

// ReshapeIn reshapes a payload. One dimension of Shape may be -1, meaning
// "infer from the element count".
type ReshapeIn struct {
	In    tensor.Payload
	Shape []int64
}
type ReshapeOut struct{ Out tensor.Payload }

type ReshapePod struct{}

func (ReshapePod) Name() string { return "tensor/reshape" }

func (ReshapePod) Run(_ *ExecContext, in any) (any, error) {
	const op = "tensor/reshape"
	a, ok := in.(ReshapeIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	n, ok := fuzzbytes.NumElements(a.In.Shape)
	if !ok || int64(a.In.Len()) != n {
		return nil, opErr(op, ErrShapeMismatch, "input %s holds %d elements", a.In, a.In.Len())
	}
	shape, err := InferShape(a.Shape, n)
	if err != nil {
		return nil, &OpError{Op: op, Err: err}
	}
	out := a.In
	out.Shape = shape
	return ReshapeOut{Out: out}, nil
}

// InferShape resolves a single -1 in shape against n elements and checks the
// result holds exactly n.
func InferShape(shape []int64, n int64) ([]int64, error) {
	out := append([]int64{}, shape...)
	infer := -1
	known := int64(1)
	for i, d := range out {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, wrapf(ErrInvalidArgument, "more than one -1 in %v", shape)
			}
			infer = i
		case d < 0:
			return nil, wrapf(ErrInvalidArgument, "negative dimension in %v", shape)
		default:
			p, ok := fuzzbytes.NumElements([]int64{known, d})
			if !ok {
				return nil, wrapf(ErrInvalidArgument, "%v overflows", shape)
			}
			known = p
		}
	}
	if infer >= 0 {
		if known == 0 || n%known != 0 {
			return nil, wrapf(ErrShapeMismatch, "cannot infer -1 in %v from %d elements", shape, n)
		}
		out[infer] = n / known
		known = n
	}
	if known != n {
		return nil, wrapf(ErrShapeMismatch, "%v does not hold %d elements", shape, n)
	}
	return out, nil
}
