//go:build gpu

package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// kernel is one compute dispatch: a WGSL module bound to buffers 0..n-1 in
// order, run over a number of 1D workgroups.
type kernel struct {
	label   string
	source  string
	buffers []*wgpu.Buffer
	groups  uint32
}

// pipeline compiles src once per context. The caller holds c.mu.
func (c *Context) pipeline(label, src string) (*wgpu.ComputePipeline, error) {
	if p, ok := c.pipelines[src]; ok {
		return p, nil
	}
	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}
	p, err := c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", label, err)
	}
	c.pipelines[src] = p
	return p, nil
}

// dispatch records and submits k. The caller holds c.mu.
func (c *Context) dispatch(k kernel) error {
	p, err := c.pipeline(k.label, k.source)
	if err != nil {
		return err
	}
	entries := make([]wgpu.BindGroupEntry, len(k.buffers))
	for i, b := range k.buffers {
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: b.GetSize()}
	}
	bg, err := c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.label + "_Bind",
		Layout:  p.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("bind %s: %w", k.label, err)
	}
	defer bg.Release()

	enc, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %v", err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(k.groups, 1, 1)
	pass.End()
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command: %v", err)
	}
	c.Queue.Submit(cmd)
	return nil
}
