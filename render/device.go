// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/prim"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Backend names a HAL backend that Open can start.
type Backend string

const (
	// BackendVulkan opens the first discrete or integrated Vulkan adapter.
	BackendVulkan Backend = "vulkan"
	// BackendNoop opens the headless noop backend. Nothing is rasterized.
	BackendNoop Backend = "noop"
)

// ParseBackend returns the Backend named by s (case-insensitive).
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendVulkan, BackendNoop:
		return b, nil
	default:
		return "", fmt.Errorf("render: unknown backend %q", s)
	}
}

// Device errors.
var (
	// ErrBackendUnavailable is returned when the requested HAL backend is not
	// compiled in or cannot create an instance.
	ErrBackendUnavailable = errors.New("render: backend not available")

	// ErrNoAdapter is returned when the backend reports no adapters.
	ErrNoAdapter = errors.New("render: no GPU adapters found")

	// ErrNoHALAccess is returned by FromProvider when the provider does not
	// expose hal.Device and hal.Queue.
	ErrNoHALAccess = errors.New("render: provider does not expose HAL types")
)

// Device is an open GPU device and its command queue.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string
	external    bool
	closed      bool
}

// Open starts backend b and opens a device on its preferred adapter.
func Open(b Backend) (*Device, error) {
	switch b {
	case BackendNoop:
		return OpenNoop()
	case BackendVulkan:
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, b)
		}
		instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: create instance: %w", ErrBackendUnavailable, b, err)
		}
		return openInstance(instance)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, b)
	}
}

// OpenNoop opens a device on the noop backend, for headless runs and tests.
func OpenNoop() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: noop: create instance: %w", ErrBackendUnavailable, err)
	}
	return openInstance(instance)
}

// openInstance selects an adapter and opens it. The instance is destroyed
// on failure.
func openInstance(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
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
		return nil, fmt.Errorf("open device: %w", err)
	}

	prim.Logger().Info("render: device opened", "adapter", selected.Info.Name)
	return &Device{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
	}, nil
}

// FromProvider borrows the device of a host application. The provider, or
// the device it returns, must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. Close on the result does not destroy
// the borrowed device.
func FromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if p == nil {
		return nil, ErrNoHALAccess
	}

	hp, ok := any(p).(halProvider)
	if !ok {
		hp, ok = any(p.Device()).(halProvider)
	}
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}

	if f := p.SurfaceFormat(); f != 0 && f != prim.TargetFormat {
		prim.Logger().Warn("render: provider surface format differs from pipeline format",
			"surface", f, "pipeline", prim.TargetFormat)
	}

	return &Device{device: device, queue: queue, external: true}, nil
}

// HalDevice returns the HAL device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// AdapterName returns the name of the opened adapter, or "" for a borrowed
// device.
func (d *Device) AdapterName() string { return d.adapterName }

// External reports whether the device is borrowed from a provider.
func (d *Device) External() bool { return d.external }

// Close destroys the device and instance unless they are borrowed. Safe to
// call multiple times.
func (d *Device) Close() {
	if d == nil || d.closed {
		return
	}
	d.closed = true
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	prim.Logger().Info("render: device closed", "adapter", d.adapterName)
}
