// Package harnesstest holds the helpers harness tests share.
package harnesstest

import (
	"testing"

	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

// Fuzz seeds f and fuzzes h on a CPU-only context, failing on any Fault.
func Fuzz(f *testing.F, h harness.Harness, seeds ...[]byte) {
	f.Helper()
	FuzzContext(f, pods.NewContext(nil), h, seeds...)
}

// FuzzContext is Fuzz on x. With GPU hooks attached, inputs whose GPU result
// strays from the CPU reference fail as well.
func FuzzContext(f *testing.F, x *pods.ExecContext, h harness.Harness, seeds ...[]byte) {
	f.Helper()
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		check(t, h, data, harness.Execute(x, h, data))
	})
}

// Run executes h once on a fresh CPU context and fails t on a Fault.
func Run(t testing.TB, h harness.Harness, data []byte) harness.Result {
	t.Helper()
	return RunContext(t, pods.NewContext(nil), h, data)
}

// RunContext executes h once on x and fails t on a Fault or a divergence.
func RunContext(t testing.TB, x *pods.ExecContext, h harness.Harness, data []byte) harness.Result {
	t.Helper()
	res := harness.Execute(x, h, data)
	check(t, h, data, res)
	return res
}

// Sweep runs h over harness.RandomInputs and fails t on the first interesting
// result. It returns how many inputs landed in each status.
func Sweep(t testing.TB, h harness.Harness, seed int64, n, maxLen int) map[harness.Status]int {
	t.Helper()
	x := pods.NewContext(nil)
	counts := map[harness.Status]int{}
	for _, in := range harness.RandomInputs(seed, n, maxLen) {
		counts[RunContext(t, x, h, in).Status]++
	}
	return counts
}

func check(t testing.TB, h harness.Harness, data []byte, res harness.Result) {
	t.Helper()
	if res.Interesting() {
		t.Fatalf("%s: %s on %x: %v\n%s", h.Name(), res.Status, data, res.Err, res.Stack)
	}
}
