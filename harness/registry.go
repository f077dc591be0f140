package harness

import (
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Harness{}
)

// Register adds h. An empty or duplicate name panics.
func Register(h Harness) {
	mu.Lock()
	defer mu.Unlock()
	name := h.Name()
	if name == "" {
		panic("harness: empty name")
	}
	if _, dup := registry[name]; dup {
		panic("harness: duplicate harness " + name)
	}
	registry[name] = h
}

func Lookup(name string) (Harness, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[name]
	return h, ok
}

// Names returns every registered name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All returns every registered harness in name order.
func All() []Harness {
	names := Names()
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Harness, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}
