// Package corpus loads seed inputs from disk and follows a directory for new
// ones.
package corpus

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/inconshreveable/log15"

	"github.com/openfluke/loomfuzz/findings"
)

// Input is one corpus entry.
type Input struct {
	Path string
	Data []byte
}

// goFuzzHeader starts files in the testing.F corpus format.
const goFuzzHeader = "go test fuzz v1\n"

// Load reads every path: regular files directly, directories one level deep.
// Hidden files are skipped. The result is sorted by path.
func Load(paths ...string) ([]Input, error) {
	var out []Input
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			in, err := read(p)
			if err != nil {
				return nil, err
			}
			out = append(out, in)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || hidden(e.Name()) {
				continue
			}
			in, err := read(filepath.Join(p, e.Name()))
			if err != nil {
				return nil, err
			}
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func hidden(name string) bool { return strings.HasPrefix(name, ".") }

func read(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, err
	}
	if bytes.HasPrefix(data, []byte(goFuzzHeader)) {
		if data, err = parseGoFuzz(data); err != nil {
			return Input{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return Input{Path: path, Data: data}, nil
}

// parseGoFuzz decodes a single-argument testing.F corpus file:
//
//	go test fuzz v1
//	[]byte("...")
func parseGoFuzz(data []byte) ([]byte, error) {
	body := strings.TrimSpace(string(data[len(goFuzzHeader):]))
	if strings.Contains(body, "\n") {
		return nil, fmt.Errorf("corpus: multi-argument fuzz entry")
	}
	arg, ok := strings.CutPrefix(body, "[]byte(")
	if !ok || !strings.HasSuffix(arg, ")") {
		return nil, fmt.Errorf("corpus: fuzz entry %q is not []byte", body)
	}
	s, err := strconv.Unquote(strings.TrimSuffix(arg, ")"))
	if err != nil {
		return nil, fmt.Errorf("corpus: fuzz entry: %w", err)
	}
	return []byte(s), nil
}

// Add stores data in dir under its content key and returns the path.
func Add(dir string, data []byte) (string, error) {
	return findings.WriteArtifact(dir, "seed", data)
}

// SettleDelay is how long a file must go without further events before
// Watch reads it. A file written in several chunks is read once, whole.
var SettleDelay = 150 * time.Millisecond

// Watch calls fn for every regular file created or rewritten in dir until
// ctx ends, once the file has settled. Files that vanish before they can be
// read are skipped.
func Watch(ctx context.Context, dir string, fn func(Input)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	logger := log.New("module", "corpus", "dir", dir)
	logger.Debug("Watching corpus")

	pending := map[string]time.Time{} // path -> last event
	settle := time.NewTimer(SettleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Corpus watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if hidden(filepath.Base(ev.Name)) {
				continue
			}
			pending[ev.Name] = time.Now()
			settle.Reset(SettleDelay)
		case now := <-settle.C:
			next := time.Duration(0)
			for path, last := range pending {
				if wait := SettleDelay - now.Sub(last); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, path)
				fi, err := os.Stat(path)
				if err != nil || !fi.Mode().IsRegular() {
					continue
				}
				in, err := read(path)
				if err != nil {
					logger.Debug("Skipping corpus entry", "path", path, "err", err)
					continue
				}
				fn(in)
			}
			if next > 0 {
				settle.Reset(next)
			}
		}
	}
}
