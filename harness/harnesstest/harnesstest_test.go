package harnesstest

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

// recorder catches Fatalf instead of failing the enclosing test.
type recorder struct {
	testing.TB
	failed bool
	msg    string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.failed = true
	r.msg = fmt.Sprintf(format, args...)
	runtime.Goexit()
}

// capture runs fn on a fresh recorder in its own goroutine so Goexit only
// ends fn.
func capture(fn func(t testing.TB)) *recorder {
	r := &recorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(r)
	}()
	<-done
	return r
}

// offByOne answers every scan with the last prefix bumped.
type offByOne struct{}

func (offByOne) DispatchScanU32(in []uint32, inclusive bool) ([]uint32, error) {
	out := pods.ScanCPU(in, inclusive)
	if len(out) > 0 {
		out[len(out)-1]++
	}
	return out, nil
}

func (offByOne) DispatchReduceF32([]float32, string) (float32, error) { return 0, pods.ErrNoGPU }
func (offByOne) DispatchSoftmaxF32([]float32) ([]float32, error)      { return nil, pods.ErrNoGPU }

// scanDiff runs the scan on x and on the CPU and compares.
var scanDiff = harness.New("test/scan_diff", 1, func(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := fuzzbytes.Fill[uint32](c, int(c.ByteOr(0)%8)+1)
	if !x.UseGPU {
		return nil
	}
	got, err := x.GPU.DispatchScanU32(in, true)
	if err != nil {
		return err
	}
	return harness.Compare("test/scan_diff", pods.ScanCPU(in, true), got, 0)
})

var panicky = harness.New("test/panic", 0, func(*pods.ExecContext, *fuzzbytes.Cursor) error {
	panic("boom")
})

func TestRunContextFailsOnDivergence(t *testing.T) {
	x := pods.NewContext(nil).WithGPU(offByOne{})
	r := capture(func(t testing.TB) { RunContext(t, x, scanDiff, []byte{2, 1, 0, 0, 0}) })
	require.True(t, r.failed)
	assert.Contains(t, r.msg, "diverged")

	r = capture(func(t testing.TB) { Run(t, scanDiff, []byte{2, 1, 0, 0, 0}) })
	assert.False(t, r.failed, r.msg)
}

func TestRunFailsOnFault(t *testing.T) {
	r := capture(func(t testing.TB) { Run(t, panicky, nil) })
	require.True(t, r.failed)
	assert.Contains(t, r.msg, "fault")
	assert.Contains(t, r.msg, "boom")
}

func TestSweepCounts(t *testing.T) {
	counts := Sweep(t, scanDiff, 3, 50, 32)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 50, total)
}
