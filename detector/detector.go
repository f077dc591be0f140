//go:build gpu

package detector

import (
	"fmt"
	"strings"

	"github.com/openfluke/webgpu/wgpu"
)

// Detect probes the default adapter/device and synthesizes a report.
func Detect() (*Report, error) {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return nil, fmt.Errorf("%w: wgpu.CreateInstance returned nil", ErrUnavailable)
	}
	defer inst.Release()

	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnavailable, err)
	}
	if adapter == nil {
		return nil, fmt.Errorf("%w: no adapter", ErrUnavailable)
	}
	defer adapter.Release()

	info := adapter.GetInfo()
	supported := adapter.GetLimits()

	var feats []string
	for _, f := range adapter.EnumerateFeatures() {
		feats = append(feats, f.String())
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		RequiredFeatures: nil,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %v", ErrUnavailable, err)
	}
	defer device.Release()

	l := supported.Limits
	limits := Limits{
		MaxComputeInvocationsPerWorkgroup: l.MaxComputeInvocationsPerWorkgroup,
		MaxComputeWorkgroupSizeX:          l.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupSizeY:          l.MaxComputeWorkgroupSizeY,
		MaxComputeWorkgroupSizeZ:          l.MaxComputeWorkgroupSizeZ,
		MaxComputeWorkgroupsPerDimension:  l.MaxComputeWorkgroupsPerDimension,
		MaxComputeWorkgroupStorageSize:    l.MaxComputeWorkgroupStorageSize,
		MaxStorageBufferBindingSize:       l.MaxStorageBufferBindingSize,
		MaxBufferSize:                     l.MaxBufferSize,
	}
	wgX, wgY, wgZ := chooseWorkgroup(limits)
	tileX, tileY := chooseTile(limits, wgX, wgY)

	rep := HostReport()
	rep.GPU = true
	rep.Backend = info.BackendType.String()
	rep.AdapterType = info.AdapterType.String()
	rep.VendorID = fmt.Sprintf("0x%04x", info.VendorId)
	rep.DeviceID = fmt.Sprintf("0x%04x", info.DeviceId)
	rep.Name = strings.TrimSpace(info.Name)
	rep.Driver = strings.TrimSpace(info.DriverDescription)
	rep.Limits = limits
	rep.Features = feats
	rep.Recommended.WorkgroupX, rep.Recommended.WorkgroupY, rep.Recommended.WorkgroupZ = wgX, wgY, wgZ
	rep.Recommended.TileX, rep.Recommended.TileY = tileX, tileY
	return rep, nil
}
