package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/loomfuzz/config"
	"github.com/openfluke/loomfuzz/findings"
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

// crasher panics on a leading 0xff, rejects a leading 0x01 and accepts the
// rest.
var crasher = harness.New("test/crasher", 1, func(_ *pods.ExecContext, c *fuzzbytes.Cursor) error {
	b, _ := c.Byte()
	switch b {
	case 0xff:
		var s []int
		_ = s[b]
	case 0x01:
		return &pods.OpError{Op: "test/crasher", Err: pods.ErrInvalidArgument}
	}
	return nil
})

var differ = harness.New("test/differ", 1, func(_ *pods.ExecContext, c *fuzzbytes.Cursor) error {
	b, _ := c.Byte()
	return harness.Compare("test/differ", []float32{0}, []float32{float32(b)}, 0)
})

var sleeper = harness.New("test/sleeper", 0, func(x *pods.ExecContext, _ *fuzzbytes.Cursor) error {
	for x.Err() == nil {
		time.Sleep(time.Millisecond)
	}
	return x.Err()
})

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Workers = 3
	cfg.Artifact = filepath.Join(t.TempDir(), "artifacts")
	return cfg
}

func TestSelect(t *testing.T) {
	all := []harness.Harness{crasher, differ, sleeper}
	names := func(hs []harness.Harness) []string {
		var out []string
		for _, h := range hs {
			out = append(out, h.Name())
		}
		return out
	}

	got, err := Select(all, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"test/crasher", "test/differ", "test/sleeper"}, names(got))

	got, err = Select(all, []string{"test/*"}, []string{"test/sleeper"})
	require.NoError(t, err)
	assert.Equal(t, []string{"test/crasher", "test/differ"}, names(got))

	got, err = Select(all, []string{"test/differ", "nope"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"test/differ"}, names(got))

	_, err = Select(all, []string{"nn/*"}, nil)
	assert.Error(t, err)
}

func TestRunClassifiesAndFiles(t *testing.T) {
	cfg := testConfig(t)
	store, err := findings.Open(filepath.Join(t.TempDir(), "f.db"))
	require.NoError(t, err)
	defer store.Close()

	inputs := [][]byte{{0xff}, {0x01}, {0x00}, {}, {0xff}}
	r := New(cfg, pods.NewContext(nil), store)
	sum, err := r.Run(context.Background(), []harness.Harness{crasher, differ}, inputs)
	require.NoError(t, err)

	assert.Equal(t, map[harness.Status]int{
		harness.Fault: 2, harness.Rejected: 1, harness.Accepted: 1, harness.Starved: 1,
	}, sum.Counts["test/crasher"])
	assert.Equal(t, map[harness.Status]int{
		harness.Diverged: 3, harness.Accepted: 1, harness.Starved: 1,
	}, sum.Counts["test/differ"])
	assert.Equal(t, 2, sum.Total(harness.Fault))
	assert.Equal(t, 5, sum.Inputs)
	// {0xff} twice on crasher is one finding; differ diverges on 0xff and 0x01.
	assert.Equal(t, 3, sum.New)
	assert.Equal(t, r.RunID, sum.RunID)

	entries, err := os.ReadDir(cfg.Artifact)
	require.NoError(t, err)
	var crash, diff int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "crash-"):
			crash++
		case strings.HasPrefix(e.Name(), "diff-"):
			diff++
		}
	}
	assert.Equal(t, 1, crash)
	assert.Equal(t, 2, diff)

	// A second runner over the same store finds nothing new.
	sum, err = New(cfg, pods.NewContext(nil), store).Run(context.Background(), []harness.Harness{crasher, differ}, inputs)
	require.NoError(t, err)
	assert.Zero(t, sum.New)

	counts, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[harness.Status]int{harness.Fault: 1, harness.Diverged: 2}, counts)
}

func TestRunWithoutStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artifact = ""
	sum, err := New(cfg, pods.NewContext(nil), nil).Run(context.Background(), []harness.Harness{crasher}, [][]byte{{0xff}, {0xff}})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total(harness.Fault))
	assert.Equal(t, 1, sum.New)
}

func TestPerInputTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = config.Duration(20 * time.Millisecond)
	sum, err := New(cfg, pods.NewContext(nil), nil).Run(context.Background(), []harness.Harness{sleeper}, [][]byte{{1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total(harness.Rejected))
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 0
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	inputs := make([][]byte, 100)
	sum, err := New(cfg, pods.NewContext(nil), nil).Run(ctx, []harness.Harness{sleeper}, inputs)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, sum.Total(harness.Rejected), 100)
}

func TestInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed"), []byte("abc"), 0o644))
	cfg := config.Default()
	cfg.Corpus = []string{dir}
	cfg.Random = 4
	cfg.MaxLen = 16
	cfg.Seed = 7

	in, seed, err := Inputs(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 7, seed)
	require.Len(t, in, 5)
	assert.Equal(t, []byte("abc"), in[0])
	for _, b := range in[1:] {
		assert.LessOrEqual(t, len(b), 16)
	}

	again, _, err := Inputs(cfg)
	require.NoError(t, err)
	assert.Equal(t, in, again)

	cfg.Seed = 0
	_, seed, err = Inputs(cfg)
	require.NoError(t, err)
	assert.NotZero(t, seed)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		sum Summary
		err error
	}
	done := make(chan result, 1)
	r := New(cfg, pods.NewContext(nil), nil)
	go func() {
		sum, err := r.Watch(ctx, dir, []harness.Harness{crasher})
		done <- result{sum, err}
	}()

	// Keep dropping copies of the crashing input until the artifact shows
	// up. Each copy is a new file so it settles on its own.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("in-%d", i)), []byte{0xff}, 0o644))
			if entries, _ := os.ReadDir(cfg.Artifact); len(entries) > 0 {
				cancel()
				res := <-done
				require.NoError(t, res.err)
				assert.Equal(t, 1, res.sum.New)
				assert.Positive(t, res.sum.Total(harness.Fault))
				return
			}
		case <-ctx.Done():
			t.Fatal("watch produced no artifact")
		}
	}
}
