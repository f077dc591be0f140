package pods

import "errors"

// ReduceKinds lists the supported reductions in selector order.
var ReduceKinds = []string{"sum", "min", "max", "mean"}

type ReduceIn struct {
	In   []float32
	Kind string // "sum"|"min"|"max"|"mean"
}
type ReduceOut struct {
	Value float32
	OnGPU bool
}

type ReducePod struct{}

func (ReducePod) Name() string { return "primitives/reduce" }

func (ReducePod) Run(x *ExecContext, in any) (any, error) {
	const op = "primitives/reduce"
	args, ok := in.(ReduceIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	switch args.Kind {
	case "sum", "min", "max", "mean":
	default:
		return nil, opErr(op, ErrUnsupportedType, "kind %q", args.Kind)
	}
	if len(args.In) == 0 {
		if args.Kind == "sum" {
			return ReduceOut{}, nil
		}
		return nil, opErr(op, ErrInvalidArgument, "%s of empty input", args.Kind)
	}
	if g := x.hooks(); g != nil {
		v, err := g.DispatchReduceF32(args.In, args.Kind)
		if err == nil {
			return ReduceOut{Value: v, OnGPU: true}, nil
		}
		if !errors.Is(err, ErrNoGPU) {
			return nil, err
		}
	}
	return ReduceOut{Value: reduceCPU(args.In, args.Kind)}, nil
}

func reduceCPU(in []float32, kind string) float32 {
	switch kind {
	case "min":
		m := in[0]
		for _, v := range in[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case "max":
		m := in[0]
		for _, v := range in[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
	var s float64
	for _, v := range in {
		s += float64(v)
	}
	if kind == "mean" {
		s /= float64(len(in))
	}
	return float32(s)
}
