//go:build !nogpu

// Package gpu registers the wgpu depth-peeling device with elviz.
//
// Import this package to let NewScene render on the GPU. The device is
// opened lazily on the first Scene; if GPU initialization fails (no Vulkan
// available), elviz falls back to the software device.
//
// Usage:
//
//	import _ "github.com/gogpu/elviz/gpu" // enable GPU rendering
package gpu

import (
	"github.com/gogpu/elviz"
	gpuimpl "github.com/gogpu/elviz/internal/gpu"
	"github.com/gogpu/gpucontext"
)

func init() {
	elviz.RegisterDevice(elviz.DeviceGPU, func() (elviz.Device, error) {
		d, err := gpuimpl.Open()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// SetDeviceProvider replaces the registered GPU device with one that shares
// the device of an external provider (e.g., gogpu). This avoids creating a
// separate GPU instance.
//
// The provider must also implement HalDevice() any and HalQueue() any for
// direct HAL access. A GPU device opened before the call is closed, so
// Scenes using it must be closed first.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	d, err := gpuimpl.FromProvider(provider)
	if err != nil {
		elviz.Logger().Warn("elviz: shared GPU device rejected", "err", err)
		return err
	}
	elviz.RegisterDevice(elviz.DeviceGPU, func() (elviz.Device, error) {
		return d, nil
	})
	return nil
}
