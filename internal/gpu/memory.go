//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
)

// ErrMemoryBudgetExceeded is returned when a target would not fit in the
// device's memory budget.
var ErrMemoryBudgetExceeded = errors.New("elviz/gpu: memory budget exceeded")

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default budget for render targets (512 MB).
	DefaultMaxMemoryMB = 512

	// MinMemoryMB is the smallest accepted budget.
	MinMemoryMB = 16
)

// MemoryStats reports the GPU memory held by render targets.
type MemoryStats struct {
	// TotalBytes is the memory budget in bytes.
	TotalBytes uint64

	// UsedBytes is the memory held by live targets.
	UsedBytes uint64

	// TargetCount is the number of live targets.
	TargetCount int

	// Utilization is UsedBytes/TotalBytes.
	Utilization float64
}

// String returns a human-readable summary.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d targets]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.TargetCount)
}

// memoryBudget accounts target allocations. Guarded by Device.mu.
type memoryBudget struct {
	budgetBytes uint64
	usedBytes   uint64
	targets     int
}

func newMemoryBudget(megabytes int) memoryBudget {
	if megabytes < MinMemoryMB {
		megabytes = DefaultMaxMemoryMB
	}
	return memoryBudget{budgetBytes: uint64(megabytes) << 20} //nolint:gosec // bounded above
}

func (m *memoryBudget) reserve(bytes uint64) error {
	if m.usedBytes+bytes > m.budgetBytes {
		return fmt.Errorf("%w: need %d MB, %d of %d MB in use", ErrMemoryBudgetExceeded,
			bytes>>20, m.usedBytes>>20, m.budgetBytes>>20)
	}
	m.usedBytes += bytes
	m.targets++
	return nil
}

func (m *memoryBudget) release(bytes uint64) {
	if bytes == 0 {
		return
	}
	m.usedBytes -= min(bytes, m.usedBytes)
	if m.targets > 0 {
		m.targets--
	}
}

func (m *memoryBudget) stats() MemoryStats {
	var utilization float64
	if m.budgetBytes > 0 {
		utilization = float64(m.usedBytes) / float64(m.budgetBytes)
	}
	return MemoryStats{
		TotalBytes:  m.budgetBytes,
		UsedBytes:   m.usedBytes,
		TargetCount: m.targets,
		Utilization: utilization,
	}
}

// targetBytes estimates the device memory of a target: the color layers
// and both depth buffers at the sample count, the single-sample output
// texture and the readback staging buffer.
func targetBytes(w, h, samples, passes int) uint64 {
	texels := uint64(w) * uint64(h) //nolint:gosec // validated dimensions
	ms := texels * uint64(samples)  //nolint:gosec // 1..8
	layers := ms * layerPixelSize * uint64(passes)
	depth := 2 * ms * depthPixelSize
	output := texels * outputPixelSize
	staging := uint64(alignRowPitch(w)) * uint64(h)
	return layers + depth + output + staging
}

// MemoryStats returns the memory held by the device's targets.
func (d *Device) MemoryStats() MemoryStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mem.stats()
}

// SetMemoryBudget sets the budget checked by NewTarget. Budgets below
// MinMemoryMB are raised to it. Live targets are not affected.
func (d *Device) SetMemoryBudget(megabytes int) {
	megabytes = max(megabytes, MinMemoryMB)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mem.budgetBytes = uint64(megabytes) << 20 //nolint:gosec // bounded below
}
