package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// OpenNoop opens the hal noop backend. Frames go through the full
// submit and fence path without touching real hardware.
func OpenNoop(opts ...HALOption) (*HALDevice, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create noop instance: %w", err)
	}
	return openFirst(instance, instance.EnumerateAdapters(nil), opts)
}

// OpenVulkan opens the first discrete or integrated Vulkan adapter,
// falling back to whatever adapter is listed first.
func OpenVulkan(opts ...HALOption) (*HALDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create vulkan instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			adapters[0], adapters[i] = adapters[i], adapters[0]
			break
		}
	}
	return openFirst(instance, adapters, opts)
}

// Open picks a backend by name: "noop" or "vulkan".
func Open(backend string, opts ...HALOption) (*HALDevice, error) {
	switch backend {
	case "", "noop":
		return OpenNoop(opts...)
	case "vulkan":
		return OpenVulkan(opts...)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrNoAdapter, backend)
}

func openFirst(instance hal.Instance, adapters []hal.ExposedAdapter, opts []HALOption) (*HALDevice, error) {
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	open, err := adapters[0].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	release := func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	d, err := NewHALDevice(open.Device, open.Queue, append(opts, withRelease(release))...)
	if err != nil {
		release()
		return nil, err
	}
	d.logger.Debug("gpu device opened", "adapter", adapters[0].Info.Name)
	return d, nil
}
