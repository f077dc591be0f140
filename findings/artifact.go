package findings

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/openfluke/loomfuzz/harness"
)

// Key is the hex BLAKE3-256 digest of an input.
func Key(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortKey abbreviates a key for logs and tables.
func ShortKey(key string) string {
	return key[:min(16, len(key))]
}

// ArtifactPrefix is the file prefix a libFuzzer-style driver would use for
// status: crash for faults, diff for divergences.
func ArtifactPrefix(s harness.Status) string {
	if s == harness.Diverged {
		return "diff"
	}
	return "crash"
}

// WriteArtifact writes data to dir/<prefix>-<key> and returns the path. An
// existing artifact with the same name is left alone.
func WriteArtifact(dir, prefix string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, prefix+"-"+Key(data))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, os.Rename(tmp.Name(), path)
}
