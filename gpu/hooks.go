//go:build gpu

package gpu

import (
	"errors"

	"github.com/openfluke/loomfuzz/pods"
)

// Hooks exposes a Context as the pods GPU backend.
type Hooks struct {
	C *Context
}

var _ pods.GPUHooks = Hooks{}

func (h Hooks) DispatchSoftmaxF32(in []float32) ([]float32, error) {
	if h.C == nil {
		return nil, pods.ErrNoGPU
	}
	out, err := h.C.Softmax(in, 1)
	return out, fallback(err)
}

func (h Hooks) DispatchReduceF32(in []float32, kind string) (float32, error) {
	if h.C == nil {
		return 0, pods.ErrNoGPU
	}
	v, err := h.C.Reduce(in, kind)
	return v, fallback(err)
}

func (h Hooks) DispatchScanU32(in []uint32, inclusive bool) ([]uint32, error) {
	if h.C == nil {
		return nil, pods.ErrNoGPU
	}
	out, err := h.C.Scan(in, inclusive)
	return out, fallback(err)
}

// fallback turns inputs the device cannot take into ErrNoGPU so pods run the
// CPU path; device failures surface unchanged.
func fallback(err error) error {
	if errors.Is(err, ErrEmpty) {
		return pods.ErrNoGPU
	}
	return err
}
