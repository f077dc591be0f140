package pods

import (
	"context"
	"sync"
	"time"

	"github.com/openfluke/loomfuzz/detector"
)

// Pod is a unit of work (gemm, softmax, conv, stft, …).
type Pod interface {
	Name() string
	Run(x *ExecContext, in any) (out any, err error)
}

// ExecContext carries execution choices and capabilities. The driver builds
// one and passes it to every harness call; nothing here is process-global.
type ExecContext struct {
	Ctx      context.Context
	UseGPU   bool             // high-level knob; pods may still fall back to CPU
	Report   *detector.Report // nil when no adapter was probed
	GPU      GPUHooks         // NoGPU() unless a real backend was attached
	TempPool *Pool            // scratch buffers
	Now      time.Time
}

func NewContext(rep *detector.Report) *ExecContext {
	return &ExecContext{
		Ctx:      context.Background(),
		Report:   rep,
		GPU:      NoGPU(),
		TempPool: NewPool(),
		Now:      time.Now(),
	}
}

func (ec *ExecContext) WithGPU(g GPUHooks) *ExecContext {
	if g == nil {
		g = NoGPU()
	}
	ec.GPU = g
	_, noop := g.(noopGPU)
	ec.UseGPU = !noop
	return ec
}

// CPU returns a copy of ec that never dispatches to the GPU. Diff checks run
// the reference path through it.
func (ec *ExecContext) CPU() *ExecContext {
	cp := *ec
	cp.UseGPU = false
	return &cp
}

// Err reports cancellation of the surrounding context.
func (ec *ExecContext) Err() error {
	if ec == nil || ec.Ctx == nil {
		return nil
	}
	return ec.Ctx.Err()
}

// hooks returns the GPU backend when the context asks for it.
func (ec *ExecContext) hooks() GPUHooks {
	if ec == nil || !ec.UseGPU || ec.GPU == nil {
		return nil
	}
	return ec.GPU
}

func (ec *ExecContext) scratch(n int) []float32 {
	if ec == nil {
		return make([]float32, n)
	}
	return ec.TempPool.Float32(n)
}

func (ec *ExecContext) release(b []float32) {
	if ec != nil {
		ec.TempPool.Release(b)
	}
}

// Pool hands out zeroed float32 scratch slices to cut GC churn in the inner
// loops. A nil *Pool allocates.
type Pool struct {
	f32 sync.Pool
}

func NewPool() *Pool { return &Pool{} }

func (p *Pool) Float32(n int) []float32 {
	if p == nil {
		return make([]float32, n)
	}
	if v, ok := p.f32.Get().(*[]float32); ok && cap(*v) >= n {
		b := (*v)[:n]
		clear(b)
		return b
	}
	return make([]float32, n)
}

func (p *Pool) Release(b []float32) {
	if p == nil || cap(b) == 0 {
		return
	}
	b = b[:0]
	p.f32.Put(&b)
}
