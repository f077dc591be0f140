package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b"), "bee")
	write(t, filepath.Join(dir, "a"), "ay")
	write(t, filepath.Join(dir, ".hidden"), "no")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	write(t, filepath.Join(dir, "sub", "c"), "deep")
	single := filepath.Join(t.TempDir(), "z")
	write(t, single, "zed")

	ins, err := Load(single, dir)
	require.NoError(t, err)
	require.Len(t, ins, 3)
	var got []string
	for _, in := range ins {
		got = append(got, string(in.Data))
	}
	assert.ElementsMatch(t, []string{"ay", "bee", "zed"}, got)
	for i := 1; i < len(ins); i++ {
		assert.Less(t, ins[i-1].Path, ins[i].Path)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadGoFuzzEntry(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "f1"), "go test fuzz v1\n[]byte(\"\\x00\\x01ab\")\n")
	write(t, filepath.Join(dir, "f2"), "go test fuzz v1\nint(3)\n")

	in, err := Load(filepath.Join(dir, "f1"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 'a', 'b'}, in[0].Data)

	_, err = Load(filepath.Join(dir, "f2"))
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	dir := t.TempDir()
	path, err := Add(dir, []byte("seed"))
	require.NoError(t, err)
	ins, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, path, ins[0].Path)
	assert.Equal(t, []byte("seed"), ins[0].Data)
}

// watch starts Watch on a fresh directory and blocks until it reports files.
func watch(t *testing.T) (dir string, got <-chan Input, stop func()) {
	t.Helper()
	dir = t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	ch := make(chan Input, 64)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(in Input) {
			select {
			case ch <- in:
			default:
			}
		})
	}()
	stop = func() {
		cancel()
		require.NoError(t, <-done)
	}

	// The watcher may not be registered yet; drop fresh files until one is
	// reported.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case in := <-ch:
			if string(in.Data) == "ready" {
				return dir, ch, stop
			}
		case <-tick.C:
			write(t, filepath.Join(dir, fmt.Sprintf("ready-%d", i)), "ready")
		case <-ctx.Done():
			t.Fatal("watcher never reported")
		}
	}
}

func TestWatch(t *testing.T) {
	dir, got, stop := watch(t)
	defer stop()

	path := filepath.Join(dir, "new")
	write(t, path, "fresh")
	timeout := time.After(5 * time.Second)
	for {
		select {
		case in := <-got:
			if in.Path == path {
				assert.Equal(t, "fresh", string(in.Data))
				return
			}
		case <-timeout:
			t.Fatal("no watch event")
		}
	}
}

func TestWatchReadsChunkedFileOnce(t *testing.T) {
	dir, got, stop := watch(t)
	defer stop()

	path := filepath.Join(dir, "chunked")
	f, err := os.Create(path)
	require.NoError(t, err)
	for _, chunk := range []string{"ab", "cd", "ef"} {
		_, err := f.WriteString(chunk)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	var seen []string
	quiet := time.After(10 * SettleDelay)
	for {
		select {
		case in := <-got:
			if in.Path == path {
				seen = append(seen, string(in.Data))
			}
		case <-quiet:
			assert.Equal(t, []string{"abcdef"}, seen)
			return
		}
	}
}
