//go:build gpu

package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/inconshreveable/log15"
	"github.com/openfluke/webgpu/wgpu"
)

// Context holds one WebGPU device. The driver opens it once and shares it
// read-only with every harness; Release tears it down.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue

	log log.Logger

	mu        sync.Mutex // guards pipelines and serialises submissions
	pipelines map[string]*wgpu.ComputePipeline
}

// NewContext picks an adapter (NVIDIA first, then high performance, low
// power and default) and opens a device on it.
func NewContext(logger log.Logger) (*Context, error) {
	if logger == nil {
		logger = log.Root()
	}
	c := &Context{log: logger, pipelines: map[string]*wgpu.ComputePipeline{}}
	c.Instance = wgpu.CreateInstance(nil)
	if c.Instance == nil {
		return nil, errors.New("failed to create WebGPU instance")
	}

	for _, a := range c.Instance.EnumerateAdapters(nil) {
		info := a.GetInfo()
		logger.Debug("Found adapter", "name", info.Name, "vendor", info.VendorName,
			"device", fmt.Sprintf("0x%X", info.DeviceId), "type", info.AdapterType)
		if c.Adapter == nil && (strings.Contains(strings.ToLower(info.Name), "nvidia") ||
			strings.Contains(strings.ToLower(info.VendorName), "nvidia")) {
			c.Adapter = a
		}
	}

	var initErr error
	for _, opts := range []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	} {
		if c.Adapter != nil {
			break
		}
		c.Adapter, initErr = c.Instance.RequestAdapter(opts)
		if initErr != nil {
			logger.Debug("Adapter request failed", "err", initErr)
		}
	}
	if c.Adapter == nil {
		c.Instance.Release()
		return nil, fmt.Errorf("all adapter attempts failed: %v", initErr)
	}

	info := c.Adapter.GetInfo()
	logger.Info("Using GPU adapter", "name", info.Name, "vendor", info.VendorName)

	var err error
	c.Device, err = c.Adapter.RequestDevice(nil)
	if err != nil {
		c.Adapter.Release()
		c.Instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()
	if c.Queue == nil {
		c.Release()
		return nil, errors.New("WebGPU device has no queue")
	}
	return c, nil
}

// Release frees the cached pipelines and the device.
func (c *Context) Release() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.pipelines {
		p.Release()
		delete(c.pipelines, k)
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
