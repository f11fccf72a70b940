package prim

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

var errInjected = errors.New("injected failure")

// faultyDevice wraps a device, counts buffer and pipeline traffic and fails
// selected creation calls.
type faultyDevice struct {
	hal.Device

	// failBufferAt makes the n-th CreateBuffer call (1-based) fail; 0 never.
	failBufferAt int
	failPipeline bool

	buffersCreated     int
	buffersDestroyed   int
	pipelinesCreated   int
	pipelinesDestroyed int
	shadersCreated     int
	shadersDestroyed   int

	// bufferSizes records the size of every buffer created, by label.
	bufferSizes map[string]uint64
}

func (d *faultyDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.failBufferAt > 0 && d.buffersCreated+1 == d.failBufferAt {
		d.failBufferAt = 0
		return nil, errInjected
	}
	buf, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.buffersCreated++
		if d.bufferSizes == nil {
			d.bufferSizes = make(map[string]uint64)
		}
		d.bufferSizes[desc.Label] = desc.Size
	}
	return buf, err
}

func (d *faultyDevice) DestroyBuffer(buf hal.Buffer) {
	d.buffersDestroyed++
	d.Device.DestroyBuffer(buf)
}

func (d *faultyDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	m, err := d.Device.CreateShaderModule(desc)
	if err == nil {
		d.shadersCreated++
	}
	return m, err
}

func (d *faultyDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.shadersDestroyed++
	d.Device.DestroyShaderModule(m)
}

func (d *faultyDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.failPipeline {
		return nil, errInjected
	}
	p, err := d.Device.CreateRenderPipeline(desc)
	if err == nil {
		d.pipelinesCreated++
	}
	return p, err
}

func (d *faultyDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.pipelinesDestroyed++
	d.Device.DestroyRenderPipeline(p)
}

// liveBuffers returns buffers created and not yet destroyed.
func (d *faultyDevice) liveBuffers() int { return d.buffersCreated - d.buffersDestroyed }

func newFaultyDevice(t *testing.T) (*faultyDevice, hal.Queue) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	return &faultyDevice{Device: device}, queue
}
