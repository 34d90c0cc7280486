//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/elviz"
	"github.com/gogpu/elviz/internal/raster"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrDeviceClosed is returned when a closed device is used.
var ErrDeviceClosed = errors.New("elviz/gpu: device closed")

// Device is the wgpu/hal depth-peeling device. It implements elviz.Device.
//
// All HAL calls of a device and its targets are serialized by the device
// mutex; Scenes sharing a device render one after the other.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // shared device: not destroyed on Close

	materialLayout hal.BindGroupLayout
	pipelines      map[pipelineKey]*pipelineSet
	batches        map[*batchBuffers]struct{}
	mem            memoryBudget
	closed         bool
}

var _ elviz.Device = (*Device)(nil)

// Open creates a device on the first Vulkan adapter, preferring discrete
// and integrated GPUs.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("elviz/gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("elviz/gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("elviz/gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("elviz/gpu: open device: %w", err)
	}
	d, err := newDevice(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	slogger().Info("elviz/gpu: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// NewDevice wraps a HAL device and queue owned by the caller. Close
// releases the elviz resources but leaves the device itself alive.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("elviz/gpu: nil device or queue")
	}
	d, err := newDevice(device, queue)
	if err != nil {
		return nil, err
	}
	d.external = true
	return d, nil
}

// FromProvider wraps the device of an external provider (e.g., gogpu). The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func FromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("elviz/gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("elviz/gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("elviz/gpu: provider HalQueue is not hal.Queue")
	}
	d, err := NewDevice(device, queue)
	if err != nil {
		return nil, err
	}
	slogger().Info("elviz/gpu: using shared GPU device")
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "elviz_material_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elviz/gpu: create material bind group layout: %w", err)
	}
	return &Device{
		device:         device,
		queue:          queue,
		materialLayout: layout,
		pipelines:      make(map[pipelineKey]*pipelineSet),
		batches:        make(map[*batchBuffers]struct{}),
		mem:            newMemoryBudget(DefaultMaxMemoryMB),
	}, nil
}

// Name implements elviz.Device.
func (d *Device) Name() string { return elviz.DeviceGPU }

// SetLogger routes the package diagnostics to l.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// NewTarget implements elviz.Device.
func (d *Device) NewTarget(cfg elviz.TargetConfig) (elviz.Target, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Passes < 1 || !raster.SupportedSamples(cfg.Samples) {
		return nil, fmt.Errorf("%w: invalid config %+v", elviz.ErrTargetAllocation, cfg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	pipes, err := d.pipelineSetLocked(cfg.Samples, cfg.Passes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", elviz.ErrTargetAllocation, err)
	}
	size := targetBytes(cfg.Width, cfg.Height, cfg.Samples, cfg.Passes)
	if err := d.mem.reserve(size); err != nil {
		return nil, fmt.Errorf("%w: %w", elviz.ErrTargetAllocation, err)
	}
	t := &target{dev: d, cfg: cfg, pipes: pipes, reserved: size}
	if err := t.create(); err != nil {
		t.destroyLocked()
		return nil, fmt.Errorf("%w: %w", elviz.ErrTargetAllocation, err)
	}
	slogger().Debug("elviz/gpu: target created",
		"width", cfg.Width, "height", cfg.Height, "samples", cfg.Samples, "passes", cfg.Passes)
	return t, nil
}

// Close implements elviz.Device. Batch buffers still cached by drawables
// are destroyed; their later Release is a no-op.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for b := range d.batches {
		b.destroyLocked()
	}
	d.batches = nil
	for _, p := range d.pipelines {
		p.destroy(d.device)
	}
	d.pipelines = nil
	if d.materialLayout != nil {
		d.device.DestroyBindGroupLayout(d.materialLayout)
		d.materialLayout = nil
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
