package pods

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Pod{}
)

// Register adds p under p.Name(). Registering a name twice panics.
func Register(p Pod) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[p.Name()]; dup {
		panic("pods: duplicate pod " + p.Name())
	}
	registry[p.Name()] = p
}

func Lookup(name string) (Pod, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

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

// Run looks a pod up by name and runs it.
func Run(x *ExecContext, name string, in any) (any, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown pod: %s", name)
	}
	return p.Run(x, in)
}

func init() {
	for _, p := range []Pod{
		GEMMPod{}, SoftmaxPod{}, LayerNormPod{}, RMSNormPod{},
		ReducePod{}, ScanPod{},
		DensePod{}, Conv1DPod{}, Conv2DPod{}, EmbeddingPod{}, SwiGLUPod{},
		RoPEPod{}, ResidualPod{}, RNNPod{}, LSTMCellPod{},
		ReshapePod{}, CastPod{},
		VarintDecodePod{}, RGBToYUVPod{}, CullingPod{}, STFTPod{}, AStarPod{},
		BPEMergePod{},
	} {
		Register(p)
	}
}
