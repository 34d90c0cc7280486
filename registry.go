package elviz

import (
	"fmt"
	"slices"
	"sync"
)

// Registered device names.
const (
	DeviceGPU      = "gpu"
	DeviceSoftware = "software"
)

// DeviceFactory opens a device. It is called at most once per registration,
// the first time the device is requested.
type DeviceFactory func() (Device, error)

var (
	registryMu sync.Mutex
	factories  = make(map[string]DeviceFactory)
	opened     = make(map[string]Device)
	failed     = make(map[string]error)
	// Priority order for DefaultDevice (first that opens wins).
	devicePriority = []string{DeviceGPU, DeviceSoftware}
)

func init() {
	RegisterDevice(DeviceSoftware, func() (Device, error) {
		return NewSoftwareDevice(), nil
	})
}

// RegisterDevice registers a device factory under name. A device already
// opened under the same name is closed and replaced on next use.
// This is typically called from init() functions in backend packages.
func RegisterDevice(name string, factory DeviceFactory) {
	registryMu.Lock()
	old := opened[name]
	delete(opened, name)
	delete(failed, name)
	factories[name] = factory
	registryMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// UnregisterDevice removes a device from the registry, closing it if it was
// opened.
func UnregisterDevice(name string) {
	registryMu.Lock()
	old := opened[name]
	delete(opened, name)
	delete(failed, name)
	delete(factories, name)
	registryMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// AvailableDevices returns the sorted names of registered devices.
func AvailableDevices() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OpenDevice returns the device registered under name, opening it on first
// use. Later calls return the same instance, or the error of the first
// failed attempt.
func OpenDevice(name string) (Device, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	return openLocked(name)
}

func openLocked(name string) (Device, error) {
	if d, ok := opened[name]; ok {
		return d, nil
	}
	if err, ok := failed[name]; ok {
		return nil, err
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrNoDevice, name)
	}
	d, err := factory()
	if err != nil {
		err = fmt.Errorf("elviz: open device %q: %w", name, err)
		failed[name] = err
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %q factory returned nil", ErrNoDevice, name)
	}
	propagateLogger(d, Logger())
	opened[name] = d
	Logger().Info("elviz: device opened", "device", name)
	return d, nil
}

// DefaultDevice returns the best available device: the GPU device when it is
// registered and opens, the software device otherwise.
func DefaultDevice() (Device, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, name := range devicePriority {
		if _, ok := factories[name]; !ok {
			continue
		}
		d, err := openLocked(name)
		if err != nil {
			Logger().Warn("elviz: device unavailable, falling back", "device", name, "err", err)
			continue
		}
		return d, nil
	}
	return nil, ErrNoDevice
}

// CloseDevices closes every opened device. Registrations are kept, so
// devices are reopened on next use; failed devices are retried.
func CloseDevices() {
	registryMu.Lock()
	devs := opened
	opened = make(map[string]Device)
	failed = make(map[string]error)
	registryMu.Unlock()
	for _, d := range devs {
		d.Close()
	}
}

// registeredDevices returns the currently opened devices.
func registeredDevices() []Device {
	registryMu.Lock()
	defer registryMu.Unlock()
	devs := make([]Device, 0, len(opened))
	for _, d := range opened {
		devs = append(devs, d)
	}
	return devs
}
