package ops

import (
	"encoding/binary"
	"math"
	"testing"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/harness/harnesstest"
	"github.com/openfluke/loomfuzz/pods"
)

func f32(vs ...float32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func u32(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func join(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func lookup(t *testing.T, name string) harness.Harness {
	t.Helper()
	h, ok := harness.Lookup(name)
	require.True(t, ok, "harness %s not registered", name)
	return h
}

func registered(name string) harness.Harness {
	h, ok := harness.Lookup(name)
	if !ok {
		panic("harness " + name + " not registered")
	}
	return h
}

// skewedGPU returns wrong answers; honest ones when Honest is set.
type skewedGPU struct{ Honest bool }

func (g skewedGPU) DispatchScanU32(in []uint32, inclusive bool) ([]uint32, error) {
	out := pods.ScanCPU(in, inclusive)
	if !g.Honest && len(out) > 0 {
		out[len(out)-1]++
	}
	return out, nil
}

func (g skewedGPU) DispatchReduceF32(in []float32, kind string) (float32, error) {
	if g.Honest && kind == "sum" {
		var s float32
		for _, v := range in {
			s += v
		}
		return s, nil
	}
	return 1e6, nil
}

func (g skewedGPU) DispatchSoftmaxF32(in []float32) ([]float32, error) {
	out := make([]float32, len(in))
	out[0] = 1
	return out, nil
}

func gpuContext(honest bool) *pods.ExecContext {
	return pods.NewContext(nil).WithGPU(skewedGPU{Honest: honest})
}

func TestEveryPodHasAHarness(t *testing.T) {
	for _, name := range pods.Names() {
		lookup(t, name)
	}
	lookup(t, "tensor/decode")
	assert.Len(t, harness.Names(), len(pods.Names())+1)
}

func TestSweepNeverFaults(t *testing.T) {
	for _, h := range harness.All() {
		t.Run(h.Name(), func(t *testing.T) {
			counts := harnesstest.Sweep(t, h, 1, 200, 512)
			total := 0
			for _, n := range counts {
				total += n
			}
			assert.Equal(t, 200, total)
		})
	}
}

func TestGEMM(t *testing.T) {
	h := lookup(t, "ml/gemm")
	head := join([]byte{0, 0, 0, 0}, f32(1, 0), []byte{0})
	ok := join(head, []byte{1}, f32(2), f32(3))
	assert.Equal(t, harness.Accepted, harnesstest.Run(t, h, ok).Status)

	// Skew selector 0 drops the last element of A.
	short := join(head, []byte{0}, f32(2), f32(3))
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, short).Status)
}

func TestSoftmaxDivergenceAgainstGPU(t *testing.T) {
	h := lookup(t, "ml/softmax")
	// standard, 1 row, 2 cols, T=1, alpha 1.5, logits [0 0]
	in := join([]byte{0, 0, 1}, f32(1, 1.5), f32(0, 0))

	res := harness.Execute(gpuContext(false), h, in)
	require.Equal(t, harness.Diverged, res.Status, "%v", res.Err)
	var div *harness.DivergenceError
	require.ErrorAs(t, res.Err, &div)
	assert.Equal(t, "ml/softmax", div.Op)
	assert.True(t, res.Interesting())

	assert.Equal(t, harness.Accepted, harnesstest.Run(t, h, in).Status)
}

func TestScanDivergenceAgainstGPU(t *testing.T) {
	h := lookup(t, "primitives/scan")
	in := join([]byte{1, 3, 0}, u32(1, 2, 3))

	assert.Equal(t, harness.Diverged, harness.Execute(gpuContext(false), h, in).Status)
	assert.Equal(t, harness.Accepted, harness.Execute(gpuContext(true), h, in).Status)
}

func TestReduceDivergenceAgainstGPU(t *testing.T) {
	h := lookup(t, "primitives/reduce")
	// sum, rank byte, len 2 as an 8-byte dimension, [1 2]
	in := join([]byte{0, 0}, []byte{2, 0, 0, 0, 0, 0, 0, 0}, f32(1, 2))

	assert.Equal(t, harness.Diverged, harness.Execute(gpuContext(false), h, in).Status)
	assert.Equal(t, harness.Accepted, harness.Execute(gpuContext(true), h, in).Status)
}

func TestReduceUnknownKindIsRejected(t *testing.T) {
	h := lookup(t, "primitives/reduce")
	in := join([]byte{byte(len(pods.ReduceKinds)), 0}, []byte{1, 0, 0, 0, 0, 0, 0, 0}, f32(1))
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, in).Status)
}

func TestAStar(t *testing.T) {
	h := lookup(t, "ai/astar")
	// 3x3 open grid, (0,0) -> (2,2), unit costs
	open := []byte{3, 3, 0, 0, 2, 2, 0, 0, 0}
	assert.Equal(t, harness.Accepted, harnesstest.Run(t, h, open).Status)

	outside := []byte{3, 3, 0, 0, 33, 2, 0, 0, 0}
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, outside).Status)

	// Cost mode 3 turns zero cost bytes into a refused cost of 0.
	zero := join([]byte{3, 3, 0, 0, 2, 2, 3, 0, 0}, make([]byte, 9))
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, zero).Status)
}

func TestCheckPathCatchesBrokenPaths(t *testing.T) {
	in := pods.AStarIn{
		Map:   pods.GridMap{W: 3, H: 1, Solid: func(x, y int) bool { return x == 1 }},
		Start: [2]int{0, 0},
		Goal:  [2]int{2, 0},
	}
	assert.NoError(t, checkPath(in, pods.AStarOut{}))
	assert.Error(t, checkPath(in, pods.AStarOut{Path: [][2]int{{0, 0}, {2, 0}}, Cost: 1}))
	assert.Error(t, checkPath(in, pods.AStarOut{Path: [][2]int{{0, 0}, {1, 0}, {2, 0}}, Cost: 2}))
	in.Map.Solid = func(x, y int) bool { return false }
	assert.NoError(t, checkPath(in, pods.AStarOut{Path: [][2]int{{0, 0}, {1, 0}, {2, 0}}, Cost: 2}))
	assert.Error(t, checkPath(in, pods.AStarOut{Path: [][2]int{{0, 0}, {1, 0}, {2, 0}}, Cost: 3}))
}

func TestBPE(t *testing.T) {
	h := lookup(t, "text/bpe_merge")
	// "lower", two sliced merges, vocab on, unbounded rounds
	in := join([]byte{5}, []byte("lower"), []byte{2, 1, 0, 0, 1, 1, 1, 2, 3, 0, 1, 0})
	assert.Equal(t, harness.Accepted, harnesstest.Run(t, h, in).Status)

	// A raw merge without a space is not a pair.
	raw := join([]byte{2}, []byte("ab"), []byte{1, 0, 1, 'x'})
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, raw).Status)
}

func TestVarint(t *testing.T) {
	h := lookup(t, "compress/varint_decode")
	packed := pods.DeltaPack([]uint64{5, 3, 1 << 40})
	assert.Equal(t, harness.Accepted, harnesstest.Run(t, h, join([]byte{1}, packed)).Status)
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, []byte{1, 0x80}).Status)
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, []byte{0, 0xff}).Status)
}

func TestTensorDecode(t *testing.T) {
	h := lookup(t, "tensor/decode")
	res := harnesstest.Run(t, h, []byte{0, 0})
	assert.Equal(t, harness.Accepted, res.Status)
	assert.Equal(t, harness.Starved, harnesstest.Run(t, h, []byte{0}).Status)
}

func TestCastToUnknownTypeIsRejected(t *testing.T) {
	h := lookup(t, "tensor/cast")
	// F32 scalar, then a dtype selector one past String.
	in := join([]byte{0, 0}, f32(1), []byte{16})
	assert.Equal(t, harness.Rejected, harnesstest.Run(t, h, in).Status)
}

func FuzzGEMM(f *testing.F) {
	harnesstest.Fuzz(f, registered("ml/gemm"), join([]byte{1, 1, 1, 0}, f32(1, 0), []byte{0, 1}, f32(1, 2, 3, 4), f32(5, 6, 7, 8)))
}

func FuzzSoftmax(f *testing.F) {
	harnesstest.Fuzz(f, registered("ml/softmax"), join([]byte{3, 0, 3}, f32(1, 1.5), f32(1, 2, 3), []byte{1, 0, 1}))
}

func FuzzTensorDecode(f *testing.F) {
	harnesstest.Fuzz(f, registered("tensor/decode"), []byte{0, 0}, []byte{2, 1, 3, 0, 0, 0, 0, 0, 0, 0})
}

func FuzzAStar(f *testing.F) {
	harnesstest.Fuzz(f, registered("ai/astar"), []byte{3, 3, 0, 0, 2, 2, 0, 0x10, 0})
}

func FuzzBPE(f *testing.F) {
	harnesstest.Fuzz(f, registered("text/bpe_merge"), join([]byte{5}, []byte("lower"), []byte{2, 1, 0, 0, 1, 1}))
}

// stftParams is the structured view go-fuzz-headers fills before the
// fields are laid out in the harness's byte order.
type stftParams struct {
	Channels, Channel, WinLog2, Hop, Window uint8
	Samples                                 []float32
}

func FuzzSTFTStructured(f *testing.F) {
	h := registered("audio/stft")
	f.Add([]byte{1, 0, 4, 0, 2})
	f.Fuzz(func(t *testing.T, data []byte) {
		var p stftParams
		if err := fuzzheaders.NewConsumer(data).GenerateStruct(&p); err != nil {
			return
		}
		n := min(len(p.Samples), 1024)
		in := join([]byte{p.Channels, p.Channel, p.WinLog2, p.Hop, p.Window},
			binary.LittleEndian.AppendUint16(nil, uint16(n)))
		for i := 0; i < int(p.Channels%3); i++ {
			in = join(in, f32(p.Samples[:n]...))
		}
		if res := harness.Execute(pods.NewContext(nil), h, in); res.Status == harness.Fault {
			t.Fatalf("%v\n%s", res.Err, res.Stack)
		}
	})
}

// seeds returns a few deterministic random inputs plus the given ones.
func seeds(extra ...[]byte) [][]byte {
	return append(harness.RandomInputs(11, 4, 256), extra...)
}

func FuzzConv1D(f *testing.F) { harnesstest.Fuzz(f, registered("nn/conv1d"), seeds()...) }

func FuzzConv2D(f *testing.F) { harnesstest.Fuzz(f, registered("nn/conv2d"), seeds()...) }

func FuzzDense(f *testing.F) { harnesstest.Fuzz(f, registered("nn/dense"), seeds()...) }

func FuzzEmbedding(f *testing.F) { harnesstest.Fuzz(f, registered("nn/embedding"), seeds()...) }

func FuzzLayerNorm(f *testing.F) { harnesstest.Fuzz(f, registered("ml/layernorm"), seeds()...) }

func FuzzRMSNorm(f *testing.F) { harnesstest.Fuzz(f, registered("ml/rmsnorm"), seeds()...) }

func FuzzRoPE(f *testing.F) { harnesstest.Fuzz(f, registered("nn/rope"), seeds()...) }

func FuzzResidual(f *testing.F) { harnesstest.Fuzz(f, registered("nn/residual"), seeds()...) }

func FuzzSwiGLU(f *testing.F) { harnesstest.Fuzz(f, registered("nn/swiglu"), seeds()...) }

func FuzzRNN(f *testing.F) { harnesstest.Fuzz(f, registered("nn/rnn"), seeds()...) }

func FuzzLSTMCell(f *testing.F) { harnesstest.Fuzz(f, registered("nn/lstm_cell"), seeds()...) }

func FuzzReduce(f *testing.F) {
	harnesstest.Fuzz(f, registered("primitives/reduce"),
		seeds(join([]byte{0, 0}, []byte{2, 0, 0, 0, 0, 0, 0, 0}, f32(1, 2)))...)
}

func FuzzScan(f *testing.F) {
	harnesstest.Fuzz(f, registered("primitives/scan"), seeds(join([]byte{1, 3, 0}, u32(1, 2, 3)))...)
}

// FuzzScanGPU runs the scan diff against a backend that agrees with the CPU,
// so only a harness or reference bug can fail it.
func FuzzScanGPU(f *testing.F) {
	harnesstest.FuzzContext(f, gpuContext(true), registered("primitives/scan"),
		seeds(join([]byte{0, 3, 0}, u32(1, 2, 3)))...)
}

func FuzzReshape(f *testing.F) { harnesstest.Fuzz(f, registered("tensor/reshape"), seeds()...) }

func FuzzCast(f *testing.F) {
	harnesstest.Fuzz(f, registered("tensor/cast"), seeds(join([]byte{0, 0}, f32(1), []byte{1}))...)
}

func FuzzVarint(f *testing.F) {
	harnesstest.Fuzz(f, registered("compress/varint_decode"),
		seeds(join([]byte{1}, pods.DeltaPack([]uint64{5, 3, 1 << 40})))...)
}

func FuzzRGBToYUV(f *testing.F) { harnesstest.Fuzz(f, registered("video/rgb_to_yuv444"), seeds()...) }

func FuzzCullFrustum(f *testing.F) { harnesstest.Fuzz(f, registered("render/cull_frustum"), seeds()...) }
