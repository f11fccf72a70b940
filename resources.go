package prim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	vec4Size  = 16
	indexSize = 2

	// copyAlignment is the granularity WebGPU requires for buffer writes.
	copyAlignment = 4
)

// ResourceSet owns the three GPU buffers of a primitive: vertex positions,
// per-vertex colors and uint16 indices. Buffers are sized to their contents
// and never resized. The set releases its buffers exactly once, in Destroy.
type ResourceSet struct {
	device hal.Device
	queue  hal.Queue

	positionBuf hal.Buffer
	colorBuf    hal.Buffer
	indexBuf    hal.Buffer

	vertexCount uint32
	indexCount  uint32
}

// NewResourceSet validates g and uploads it into new GPU buffers. If any
// allocation fails the buffers already created are destroyed and the error
// is returned.
func NewResourceSet(device hal.Device, queue hal.Queue, g Geometry) (*ResourceSet, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	r := &ResourceSet{device: device, queue: queue}
	if err := r.createVertexBuffer(g.Positions); err != nil {
		return nil, err
	}
	if err := r.createColorBuffer(g.Colors); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createIndexBuffer(g.Indices); err != nil {
		r.Destroy()
		return nil, err
	}

	Logger().Debug("prim: resource set created",
		"vertices", r.vertexCount,
		"indices", r.indexCount,
		"positionBytes", len(g.Positions)*vec4Size,
		"indexBytes", len(g.Indices)*indexSize)
	return r, nil
}

func (r *ResourceSet) createVertexBuffer(positions []mgl32.Vec4) error {
	if len(positions) == 0 {
		return fmt.Errorf("no vertices defined: %w", ErrEmptyInput)
	}
	buf, err := r.upload("prim_positions", encodeVec4s(positions), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	r.positionBuf = buf
	r.vertexCount = uint32(len(positions)) //nolint:gosec // bounded by Validate
	return nil
}

func (r *ResourceSet) createColorBuffer(colors []mgl32.Vec4) error {
	if len(colors) == 0 {
		return fmt.Errorf("no color defined: %w", ErrEmptyInput)
	}
	buf, err := r.upload("prim_colors", encodeVec4s(colors), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("color buffer: %w", err)
	}
	r.colorBuf = buf
	return nil
}

func (r *ResourceSet) createIndexBuffer(indices []uint16) error {
	if len(indices) == 0 {
		return fmt.Errorf("no indices defined: %w", ErrEmptyInput)
	}
	// Sized count*2 rounded up to WriteBuffer's 4-byte alignment: 6 -> 8
	// bytes for a triangle, exact for a quad.
	buf, err := r.upload("prim_indices", encodeIndices(indices), gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("index buffer: %w", err)
	}
	r.indexBuf = buf
	r.indexCount = uint32(len(indices)) //nolint:gosec // index lists are small
	return nil
}

// upload creates a buffer sized to data and writes data into it.
func (r *ResourceSet) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%d bytes): %w", ErrAllocationFailed, label, len(data), err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: %s (%d bytes): device returned no buffer", ErrAllocationFailed, label, len(data))
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Destroy releases all buffers. Safe to call multiple times.
func (r *ResourceSet) Destroy() {
	if r == nil || r.device == nil {
		return
	}
	if r.indexBuf != nil {
		r.device.DestroyBuffer(r.indexBuf)
		r.indexBuf = nil
	}
	if r.colorBuf != nil {
		r.device.DestroyBuffer(r.colorBuf)
		r.colorBuf = nil
	}
	if r.positionBuf != nil {
		r.device.DestroyBuffer(r.positionBuf)
		r.positionBuf = nil
	}
	r.vertexCount = 0
	r.indexCount = 0
}

// PositionBuffer returns the vertex position buffer.
func (r *ResourceSet) PositionBuffer() hal.Buffer { return r.positionBuf }

// ColorBuffer returns the vertex color buffer.
func (r *ResourceSet) ColorBuffer() hal.Buffer { return r.colorBuf }

// IndexBuffer returns the index buffer, or nil if none was created.
func (r *ResourceSet) IndexBuffer() hal.Buffer { return r.indexBuf }

// VertexCount returns the number of uploaded vertices.
func (r *ResourceSet) VertexCount() uint32 { return r.vertexCount }

// IndexCount returns the number of uploaded indices.
func (r *ResourceSet) IndexCount() uint32 { return r.indexCount }

// encodeVec4s packs vectors as consecutive little-endian float32 quadruples.
func encodeVec4s(vs []mgl32.Vec4) []byte {
	buf := make([]byte, 0, len(vs)*vec4Size)
	for _, v := range vs {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

// encodeIndices packs indices as little-endian uint16 values. The result is
// padded with zero bytes to the copy alignment; the padding is never drawn.
func encodeIndices(indices []uint16) []byte {
	n := len(indices) * indexSize
	buf := make([]byte, alignUp(n, copyAlignment))
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*indexSize:], idx)
	}
	return buf
}

func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}
