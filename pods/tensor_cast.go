package pods

import (
	"errors"

	"github.com/openfluke/loomfuzz/tensor"
)

type CastIn struct {
	In tensor.Payload
	To tensor.DType
}
type CastOut struct{ Out tensor.Payload }

type CastPod struct{}

func (CastPod) Name() string { return "tensor/cast" }

func (CastPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "tensor/cast"
	a, ok := in.(CastIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	out, err := tensor.Convert(a.In, a.To)
	if errors.Is(err, tensor.ErrUnsupported) {
		return nil, opErr(op, ErrUnsupportedType, "%s to %s", a.In.DType, a.To)
	}
	if err != nil {
		return nil, err
	}
	return CastOut{Out: out}, nil
}
