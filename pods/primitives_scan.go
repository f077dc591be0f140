package pods

import "errors"

type ScanIn struct {
	In        []uint32
	Inclusive bool
}
type ScanOut struct {
	Out   []uint32
	OnGPU bool
}

type ScanPod struct{}

func (ScanPod) Name() string { return "primitives/scan" }

func (ScanPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(ScanIn)
	if !ok {
		return nil, inputErr("primitives/scan", in)
	}
	if g := x.hooks(); g != nil && len(args.In) > 0 {
		out, err := g.DispatchScanU32(args.In, args.Inclusive)
		if err == nil {
			return ScanOut{Out: out, OnGPU: true}, nil
		}
		if !errors.Is(err, ErrNoGPU) {
			return nil, err
		}
	}
	return ScanOut{Out: ScanCPU(args.In, args.Inclusive)}, nil
}

// ScanCPU is the reference prefix sum. Sums wrap modulo 2^32.
func ScanCPU(in []uint32, inclusive bool) []uint32 {
	out := make([]uint32, len(in))
	var acc uint32
	for i, v := range in {
		if inclusive {
			acc += v
			out[i] = acc
		} else {
			out[i] = acc
			acc += v
		}
	}
	return out
}
