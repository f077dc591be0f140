// Package detector reports what the current machine can run: host facts
// always, WebGPU adapter caps when built with the gpu tag.
package detector

import (
	"encoding/json"
	"errors"
	"os"
	"runtime"
	"strconv"
	"time"
)

// ErrUnavailable is returned by Detect when no GPU probe is compiled in or no
// adapter answers.
var ErrUnavailable = errors.New("detector: gpu probe unavailable")

// BudgetEnv overrides the soft staging budget, in MiB.
const BudgetEnv = "LOOMFUZZ_BUDGET_MB"

/* ---------- public API ---------- */

// Report is a portable summary of the host and, when probed, the adapter.
type Report struct {
	WhenISO     string            `json:"when_iso"`
	Runtime     string            `json:"runtime"` // "native" or "wasm" (best-effort)
	Host        Host              `json:"host"`
	GPU         bool              `json:"gpu"`
	Backend     string            `json:"backend,omitempty"`
	AdapterType string            `json:"adapter_type,omitempty"`
	VendorID    string            `json:"vendor_id_hex,omitempty"`
	DeviceID    string            `json:"device_id_hex,omitempty"`
	Name        string            `json:"name,omitempty"`
	Driver      string            `json:"driver,omitempty"`
	Recommended Recommendations   `json:"recommended"`
	Limits      Limits            `json:"limits"`
	Features    []string          `json:"features,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
}

type Host struct {
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Limits struct {
	MaxComputeInvocationsPerWorkgroup uint32 `json:"max_compute_invocations_per_workgroup"`
	MaxComputeWorkgroupSizeX          uint32 `json:"max_compute_workgroup_size_x"`
	MaxComputeWorkgroupSizeY          uint32 `json:"max_compute_workgroup_size_y"`
	MaxComputeWorkgroupSizeZ          uint32 `json:"max_compute_workgroup_size_z"`
	MaxComputeWorkgroupsPerDimension  uint32 `json:"max_compute_workgroups_per_dimension"`
	MaxComputeWorkgroupStorageSize    uint32 `json:"max_compute_workgroup_storage_size"`
	MaxStorageBufferBindingSize       uint64 `json:"max_storage_buffer_binding_size"`
	MaxBufferSize                     uint64 `json:"max_buffer_size"`
}

type Recommendations struct {
	// Conservative 1D workgroup that should run everywhere.
	WorkgroupX uint32 `json:"workgroup_x"`
	WorkgroupY uint32 `json:"workgroup_y"`
	WorkgroupZ uint32 `json:"workgroup_z"`

	TileX uint32 `json:"tile_x"`
	TileY uint32 `json:"tile_y"`

	// Soft VRAM/heap budget in bytes for staging + temps.
	BudgetBytes uint64 `json:"budget_bytes"`
}

// HostReport returns a report with no adapter section.
func HostReport() *Report {
	return &Report{
		WhenISO: time.Now().UTC().Format(time.RFC3339),
		Runtime: detectRuntime(),
		Host: Host{
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Recommended: Recommendations{WorkgroupX: 1, WorkgroupY: 1, WorkgroupZ: 1, TileX: 1, TileY: 1, BudgetBytes: budgetBytes()},
		Env:         pickEnv([]string{BudgetEnv}),
	}
}

// Probe returns the GPU report when one is available and the host report
// otherwise. The error says why the adapter section is missing.
func Probe() (*Report, error) {
	rep, err := Detect()
	if err != nil {
		return HostReport(), err
	}
	return rep, nil
}

// DetectJSON runs a probe and returns the JSON string.
func DetectJSON() (string, error) {
	rep, _ := Probe()
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

/* ---------- helpers ---------- */

func chooseWorkgroup(l Limits) (uint32, uint32, uint32) {
	candidates := []uint32{256, 128, 64, 32, 16, 8, 4, 1}
	for _, c := range candidates {
		if c <= l.MaxComputeWorkgroupSizeX && c <= l.MaxComputeInvocationsPerWorkgroup {
			return c, 1, 1
		}
	}
	return 1, 1, 1
}

func chooseTile(l Limits, wgX, wgY uint32) (uint32, uint32) {
	// A few workgroups worth, capped by the per-dimension dispatch limit.
	tx := max(wgX*8, 1)
	tx = min(tx, l.MaxComputeWorkgroupsPerDimension)

	ty := uint32(1)
	if wgY > 1 {
		ty = min(wgY*8, l.MaxComputeWorkgroupsPerDimension)
	}
	return tx, ty
}

func budgetBytes() uint64 {
	budget := uint64(128 * 1024 * 1024)
	if mbStr := os.Getenv(BudgetEnv); mbStr != "" {
		if mb, err := strconv.Atoi(mbStr); err == nil && mb > 0 {
			budget = uint64(mb) * 1024 * 1024
		}
	}
	return budget
}

func detectRuntime() string {
	if runtime.GOOS == "js" {
		return "wasm"
	}
	return "native"
}

func pickEnv(keys []string) map[string]string {
	out := map[string]string{}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
