// Package runner drives a set of harnesses over corpus and generated inputs,
// classifies every execution and files the interesting ones.
package runner

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	log "github.com/inconshreveable/log15"
	"github.com/shirou/gopsutil/process"

	"github.com/openfluke/loomfuzz/config"
	"github.com/openfluke/loomfuzz/corpus"
	"github.com/openfluke/loomfuzz/findings"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

// Summary reports one run.
type Summary struct {
	RunID   string
	Inputs  int
	Counts  map[string]map[harness.Status]int // by harness name
	New     int                               // findings not seen before
	Elapsed time.Duration
	RSS     uint64 // resident set size at the end, 0 when unknown
}

// Total sums one status over every harness.
func (s Summary) Total(st harness.Status) int {
	n := 0
	for _, c := range s.Counts {
		n += c[st]
	}
	return n
}

// Runner executes harnesses. A Runner is not safe for concurrent Run calls.
type Runner struct {
	RunID string

	cfg   config.Config
	x     *pods.ExecContext
	store *findings.Store // nil keeps findings in the log only
	log   log.Logger

	seen mapset.Set[string] // artifact keys written by this runner
}

// New returns a runner over x. store may be nil.
func New(cfg config.Config, x *pods.ExecContext, store *findings.Store) *Runner {
	id := uuid.NewString()
	return &Runner{
		RunID: id,
		cfg:   cfg,
		x:     x,
		store: store,
		log:   log.New("module", "runner", "run", id[:8]),
		seen:  mapset.NewThreadUnsafeSet[string](),
	}
}

// Select filters hs by include and exclude globs (path.Match syntax) and
// returns the survivors sorted by name.
func Select(hs []harness.Harness, include, exclude []string) ([]harness.Harness, error) {
	matches := func(pats []string, name string) bool {
		for _, p := range pats {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
		return false
	}
	keep := mapset.NewThreadUnsafeSet[string]()
	byName := make(map[string]harness.Harness, len(hs))
	for _, h := range hs {
		byName[h.Name()] = h
		if len(include) == 0 || matches(include, h.Name()) {
			keep.Add(h.Name())
		}
	}
	for name := range byName {
		if matches(exclude, name) {
			keep.Remove(name)
		}
	}
	if keep.Cardinality() == 0 {
		return nil, fmt.Errorf("no harness matches include %v exclude %v", include, exclude)
	}
	names := keep.ToSlice()
	sort.Strings(names)
	out := make([]harness.Harness, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out, nil
}

// Inputs loads the configured corpus and appends cfg.Random generated
// inputs. It returns the generator seed it used.
func Inputs(cfg config.Config) ([][]byte, int64, error) {
	seeds, err := corpus.Load(cfg.Corpus...)
	if err != nil {
		return nil, 0, err
	}
	out := make([][]byte, 0, len(seeds)+cfg.Random)
	for _, s := range seeds {
		out = append(out, s.Data)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return append(out, harness.RandomInputs(seed, cfg.Random, cfg.MaxLen)...), seed, nil
}

type job struct {
	h    harness.Harness
	data []byte
}

type outcome struct {
	res  harness.Result
	data []byte
}

// Run executes every harness in hs on every input with cfg.Workers workers.
// Cancelling ctx stops the run early; the partial summary is still returned.
func (r *Runner) Run(ctx context.Context, hs []harness.Harness, inputs [][]byte) (Summary, error) {
	start := time.Now()
	sum := r.newSummary(hs)
	sum.Inputs = len(inputs)
	r.log.Info("Starting run", "harnesses", len(hs), "inputs", len(inputs), "workers", r.cfg.Workers)

	jobs := make(chan job)
	outcomes := make(chan outcome)
	var wg sync.WaitGroup
	for i := 0; i < max(r.cfg.Workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes <- outcome{res: r.exec(ctx, j.h, j.data), data: j.data}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, h := range hs {
			for _, in := range inputs {
				select {
				case jobs <- job{h, in}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var firstErr error
	for o := range outcomes {
		if err := r.handle(ctx, &sum, o.res, o.data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	sum.Elapsed = time.Since(start)
	sum.RSS = rss()
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return sum, firstErr
}

// Watch runs hs on every file that appears in dir until ctx ends.
func (r *Runner) Watch(ctx context.Context, dir string, hs []harness.Harness) (Summary, error) {
	start := time.Now()
	sum := r.newSummary(hs)
	var firstErr error
	err := corpus.Watch(ctx, dir, func(in corpus.Input) {
		sum.Inputs++
		r.log.Debug("New corpus entry", "path", in.Path, "len", len(in.Data))
		for _, h := range hs {
			if err := r.handle(ctx, &sum, r.exec(ctx, h, in.Data), in.Data); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	sum.Elapsed = time.Since(start)
	sum.RSS = rss()
	if err == nil {
		err = firstErr
	}
	return sum, err
}

func (r *Runner) newSummary(hs []harness.Harness) Summary {
	sum := Summary{RunID: r.RunID, Counts: make(map[string]map[harness.Status]int, len(hs))}
	for _, h := range hs {
		sum.Counts[h.Name()] = map[harness.Status]int{}
	}
	return sum
}

// exec runs one input on a private copy of the execution context carrying
// the per-input deadline.
func (r *Runner) exec(ctx context.Context, h harness.Harness, data []byte) harness.Result {
	x := *r.x
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Timeout))
		defer cancel()
	}
	x.Ctx = ctx
	return harness.Execute(&x, h, data)
}

// handle counts res and files it when interesting. It only runs on the
// collecting goroutine.
func (r *Runner) handle(ctx context.Context, sum *Summary, res harness.Result, data []byte) error {
	sum.Counts[res.Harness][res.Status]++
	if !res.Interesting() {
		return nil
	}
	key := findings.Key(data)
	logger := r.log.New("harness", res.Harness, "key", key[:16])
	logger.Debug("Interesting input", "dump", log.Lazy{Fn: func() string { return spew.Sdump(data) }})
	if res.Status == harness.Fault {
		logger.Error("Harness fault", "err", res.Err, "offset", res.Offset)
	} else {
		logger.Warn("Backends diverged", "err", res.Err)
	}

	isNew := !r.seen.Contains(key + "/" + res.Harness)
	if r.store != nil {
		var err error
		if isNew, err = r.store.Record(ctx, findings.FromResult(r.RunID, res, data)); err != nil {
			return fmt.Errorf("record finding: %w", err)
		}
	}
	r.seen.Add(key + "/" + res.Harness)
	if !isNew {
		return nil
	}
	sum.New++
	if r.cfg.Artifact != "" {
		p, err := findings.WriteArtifact(r.cfg.Artifact, findings.ArtifactPrefix(res.Status), data)
		if err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		logger.Info("Wrote artifact", "path", p)
	}
	return nil
}

func rss() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0
	}
	return mi.RSS
}
