//go:build !gpu

package main

import "github.com/openfluke/loomfuzz/pods"

func openGPU() (pods.GPUHooks, func(), error) {
	return nil, nil, pods.ErrNoGPU
}
