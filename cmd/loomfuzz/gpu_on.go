//go:build gpu

package main

import (
	log "github.com/inconshreveable/log15"

	"github.com/openfluke/loomfuzz/gpu"
	"github.com/openfluke/loomfuzz/pods"
)

func openGPU() (pods.GPUHooks, func(), error) {
	c, err := gpu.NewContext(log.New("module", "gpu"))
	if err != nil {
		return nil, nil, err
	}
	return gpu.Hooks{C: c}, c.Release, nil
}
