//go:build gpu

package gpu

import (
	"errors"

	"github.com/openfluke/webgpu/wgpu"
)

// ErrEmpty is returned for zero-length inputs; WebGPU cannot bind an empty
// storage buffer.
var ErrEmpty = errors.New("gpu: empty input")

// Softmax runs SoftmaxShader over in.
func (c *Context) Softmax(in []float32, temp float32) ([]float32, error) {
	if len(in) == 0 {
		return nil, ErrEmpty
	}
	return run[float32, float32](c, "Softmax", SoftmaxShader(len(in), temp), in, len(in))
}

// Reduce folds in with kind ("sum", "min", "max" or "mean").
func (c *Context) Reduce(in []float32, kind string) (float32, error) {
	if len(in) == 0 {
		return 0, ErrEmpty
	}
	src, err := ReduceShader(len(in), kind)
	if err != nil {
		return 0, err
	}
	out, err := run[float32, float32](c, "Reduce_"+kind, src, in, 1)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Scan computes the prefix sum of in.
func (c *Context) Scan(in []uint32, inclusive bool) ([]uint32, error) {
	if len(in) == 0 {
		return nil, ErrEmpty
	}
	return run[uint32, uint32](c, "Scan", ScanShader(len(in), inclusive), in, len(in))
}

// run uploads in, dispatches one workgroup of src and reads back n outputs.
func run[I, O any](c *Context, label, src string, in []I, n int) ([]O, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inBuf, err := upload(c, label+"_In", in)
	if err != nil {
		return nil, err
	}
	defer inBuf.Destroy()
	outBuf, err := scratchBuffer(c, label+"_Out", n)
	if err != nil {
		return nil, err
	}
	defer outBuf.Destroy()

	if err := c.dispatch(kernel{
		label:   label,
		source:  src,
		buffers: []*wgpu.Buffer{inBuf, outBuf},
		groups:  1,
	}); err != nil {
		return nil, err
	}
	return readBuffer[O](c, outBuf, n)
}
