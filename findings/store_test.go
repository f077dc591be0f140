package findings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/loomfuzz/harness"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordDeduplicates(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	input := []byte("\x00\x01\x02 gemm crash")
	res := harness.Result{
		Harness: "ml/gemm",
		Status:  harness.Fault,
		Err:     errors.New("index out of range"),
		Offset:  7,
		Stack:   "pods/ml_gemm.go:40 GEMMPod.Run",
		Elapsed: time.Millisecond,
	}

	isNew, err := s.Record(ctx, FromResult("run-1", res, input))
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = s.Record(ctx, FromResult("run-2", res, input))
	require.NoError(t, err)
	assert.False(t, isNew)

	f, err := s.Get(ctx, Key(input))
	require.NoError(t, err)
	want := Finding{
		Key:     Key(input),
		Harness: "ml/gemm",
		Status:  harness.Fault,
		Message: "index out of range",
		Stack:   "pods/ml_gemm.go:40 GEMMPod.Run",
		Offset:  7,
		Elapsed: time.Millisecond,
		RunID:   "run-2",
		Input:   input,
		Hits:    2,
	}
	assert.False(t, f.FirstSeen.IsZero())
	assert.False(t, f.LastSeen.Before(f.FirstSeen))
	f.FirstSeen, f.LastSeen = time.Time{}, time.Time{}
	if diff := pretty.Compare(want, f); diff != "" {
		t.Errorf("stored finding (-want +got):\n%s", diff)
	}
}

func TestSameInputDifferentHarness(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	input := []byte{1, 2, 3}
	for _, name := range []string{"ml/gemm", "nn/dense"} {
		isNew, err := s.Record(ctx, Finding{Harness: name, Status: harness.Diverged, Input: input})
		require.NoError(t, err)
		assert.True(t, isNew)
	}

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	dense, err := s.List(ctx, "nn/dense")
	require.NoError(t, err)
	require.Len(t, dense, 1)
	assert.Equal(t, input, dense[0].Input)
	assert.Equal(t, Key(input), dense[0].Key)
}

func TestCountByStatus(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i, st := range []harness.Status{harness.Fault, harness.Fault, harness.Diverged} {
		_, err := s.Record(ctx, Finding{Harness: "h", Status: st, Input: []byte{byte(i)}})
		require.NoError(t, err)
	}
	counts, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[harness.Status]int{harness.Fault: 2, harness.Diverged: 1}, counts)
}

func TestGetUnknown(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(context.Background(), Key(nil))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordNeedsHarness(t *testing.T) {
	s := openStore(t)
	_, err := s.Record(context.Background(), Finding{Input: []byte{1}})
	assert.Error(t, err)
}

func TestRecordShortCallerKey(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	isNew, err := s.Record(ctx, Finding{Key: "abc", Harness: "h", Status: harness.Fault, Input: []byte{1}})
	require.NoError(t, err)
	assert.True(t, isNew)

	f, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", f.Key)
	assert.Equal(t, "abc", ShortKey(f.Key))
	assert.Len(t, ShortKey(Key(nil)), 16)
}

func TestReopenKeepsFindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Finding{Harness: "h", Status: harness.Fault, Input: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	f, err := s.Get(context.Background(), Key([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), f.Input)
}

func TestOpenNeedsPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	k := Key([]byte("abc"))
	assert.Len(t, k, 64)
	assert.Equal(t, k, Key([]byte("abc")))
	assert.NotEqual(t, k, Key([]byte("abd")))
	// BLAKE3("") from the reference test vectors.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", Key(nil))
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	data := []byte{0xde, 0xad}

	path, err := WriteArtifact(dir, ArtifactPrefix(harness.Fault), data)
	require.NoError(t, err)
	assert.Equal(t, "crash-"+Key(data), filepath.Base(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	again, err := WriteArtifact(dir, "crash", data)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), ".artifact-"))

	assert.Equal(t, "diff", ArtifactPrefix(harness.Diverged))
}
