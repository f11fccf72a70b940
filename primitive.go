package prim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// State is the construction state of a Primitive.
type State uint8

const (
	// StateUninitialized is the state before construction and after Destroy.
	StateUninitialized State = iota
	// StateBuffersReady means vertex, color and index buffers exist.
	StateBuffersReady
	// StatePipelineReady means the render pipeline exists as well.
	StatePipelineReady
	// StateDrawable means the transform binding exists and the primitive
	// can be encoded and drawn.
	StateDrawable
)

var stateNames = [...]string{
	StateUninitialized: "Uninitialized",
	StateBuffersReady:  "BuffersReady",
	StatePipelineReady: "PipelineReady",
	StateDrawable:      "Drawable",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Primitive is a drawable 2D shape: its GPU buffers, the pipeline it renders
// with, and a model transform uploaded before every draw.
//
// A Primitive is either fully Drawable or not returned at all; construction
// failures release everything built so far. It is not safe for concurrent
// use.
type Primitive struct {
	device hal.Device
	label  string
	shape  Shape
	state  State

	transform Transform
	resources *ResourceSet

	pipeline      *Pipeline
	ownsPipeline  bool
	transformBuf  hal.Buffer
	transformBind hal.BindGroup

	// writeBuffer uploads data to the start of buf.
	writeBuffer func(buf hal.Buffer, data []byte)
}

// New builds a primitive of the given shape from g. Without a pipeline cache
// the primitive compiles and owns its own pipeline.
func New(device hal.Device, queue hal.Queue, shape Shape, g Geometry, opts ...Option) (*Primitive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newPrimitive(device, queue, shape, g, &o)
}

func newPrimitive(device hal.Device, queue hal.Queue, shape Shape, g Geometry, o *options) (*Primitive, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	label := o.label
	if label == "" {
		label = shape.String()
	}

	p := &Primitive{
		device:    device,
		label:     label,
		shape:     shape,
		transform: NewTransform(),
		writeBuffer: func(buf hal.Buffer, data []byte) {
			queue.WriteBuffer(buf, 0, data)
		},
	}

	resources, err := NewResourceSet(device, queue, g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	p.resources = resources
	p.state = StateBuffersReady

	if err := p.attachPipeline(o); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	p.state = StatePipelineReady

	if err := p.createTransformBinding(); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	p.state = StateDrawable

	Logger().Debug("prim: primitive ready",
		"label", label,
		"shape", shape,
		"vertices", resources.VertexCount(),
		"indices", resources.IndexCount(),
		"sharedPipeline", !p.ownsPipeline)
	return p, nil
}

func (p *Primitive) attachPipeline(o *options) error {
	if o.cache != nil {
		pl, err := o.cache.Get(o.source)
		if err != nil {
			return err
		}
		p.pipeline = pl
		return nil
	}
	pl, err := NewPipeline(p.device, p.label, o.source)
	if err != nil {
		return err
	}
	p.pipeline = pl
	p.ownsPipeline = true
	return nil
}

// createTransformBinding allocates the uniform buffer holding the model
// matrix and binds it at group 0, binding 0.
func (p *Primitive) createTransformBinding() error {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.label + "_transform",
		Size:  TransformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: transform buffer: %w", ErrAllocationFailed, err)
	}
	if buf == nil {
		return fmt.Errorf("%w: transform buffer: device returned no buffer", ErrAllocationFailed)
	}
	p.transformBuf = buf

	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.label + "_transform_bind",
		Layout: p.pipeline.BindGroupLayout(),
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: TransformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: transform bind group: %w", ErrPipelineCreationFailed, err)
	}
	p.transformBind = bg
	return nil
}

// Encode uploads the current transform and binds the pipeline, both vertex
// streams and the transform bind group. It records nothing unless the
// primitive is Drawable.
func (p *Primitive) Encode(enc RenderEncoder) error {
	if p.state != StateDrawable {
		return fmt.Errorf("%w: %s is %s", ErrNotDrawable, p.label, p.state)
	}
	if enc == nil {
		return ErrInvalidEncoder
	}

	p.writeBuffer(p.transformBuf, p.transform.Bytes())

	enc.SetPipeline(p.pipeline.RenderPipeline())
	enc.SetVertexBuffer(positionSlot, p.resources.PositionBuffer(), 0)
	enc.SetVertexBuffer(colorSlot, p.resources.ColorBuffer(), 0)
	enc.SetBindGroup(transformGroup, p.transformBind, nil)
	return nil
}

// Draw binds the index buffer and issues one indexed draw of every index.
// Encode must have been called on the same encoder first.
func (p *Primitive) Draw(enc RenderEncoder) error {
	if enc == nil {
		return ErrInvalidEncoder
	}
	if p.resources == nil || p.resources.IndexBuffer() == nil {
		return fmt.Errorf("%w: %s", ErrMissingIndexBuffer, p.label)
	}
	enc.SetIndexBuffer(p.resources.IndexBuffer(), gputypes.IndexFormatUint16, 0)
	enc.DrawIndexed(p.resources.IndexCount(), 1, 0, 0, 0)
	return nil
}

// Transform returns the primitive's model transform. Changes take effect at
// the next Encode.
func (p *Primitive) Transform() *Transform { return &p.transform }

// Shape returns the kind of the primitive.
func (p *Primitive) Shape() Shape { return p.shape }

// State returns the construction state.
func (p *Primitive) State() State { return p.state }

// Label returns the primitive's label.
func (p *Primitive) Label() string { return p.label }

// IndexCount returns the number of indices drawn by Draw.
func (p *Primitive) IndexCount() uint32 {
	if p.resources == nil {
		return 0
	}
	return p.resources.IndexCount()
}

// VertexCount returns the number of vertices.
func (p *Primitive) VertexCount() uint32 {
	if p.resources == nil {
		return 0
	}
	return p.resources.VertexCount()
}

// Destroy releases the transform binding, the buffers and, if owned, the
// pipeline. Safe to call multiple times.
func (p *Primitive) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.transformBind != nil {
		p.device.DestroyBindGroup(p.transformBind)
		p.transformBind = nil
	}
	if p.transformBuf != nil {
		p.device.DestroyBuffer(p.transformBuf)
		p.transformBuf = nil
	}
	if p.pipeline != nil {
		if p.ownsPipeline {
			p.pipeline.Destroy()
		}
		p.pipeline = nil
		p.ownsPipeline = false
	}
	if p.resources != nil {
		p.resources.Destroy()
		p.resources = nil
	}
	p.state = StateUninitialized
}

// NewTriangle builds the default gray triangle.
func NewTriangle(device hal.Device, queue hal.Queue, opts ...Option) (*Primitive, error) {
	return New(device, queue, ShapeTriangle, TriangleGeometry(), opts...)
}

// NewQuad builds the default blue quad.
func NewQuad(device hal.Device, queue hal.Queue, opts ...Option) (*Primitive, error) {
	return New(device, queue, ShapeQuad, QuadGeometry(), opts...)
}

// NewCircle builds a filled circle. Segment count, radius and color come
// from WithSegments, WithRadius and WithColor.
func NewCircle(device hal.Device, queue hal.Queue, opts ...Option) (*Primitive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g, err := CircleGeometry(o.segments, o.radius, o.color)
	if err != nil {
		return nil, err
	}
	return newPrimitive(device, queue, ShapeCircle, g, &o)
}

// NewCustomTriangle builds a triangle from caller-supplied vertices and colors.
func NewCustomTriangle(device hal.Device, queue hal.Queue, positions, colors []mgl32.Vec4, opts ...Option) (*Primitive, error) {
	g, err := CustomTriangle(positions, colors)
	if err != nil {
		return nil, err
	}
	return New(device, queue, ShapeTriangle, g, opts...)
}

// NewCustomQuad builds a quad from caller-supplied vertices and colors, given
// in top-left, top-right, bottom-right, bottom-left order.
func NewCustomQuad(device hal.Device, queue hal.Queue, positions, colors []mgl32.Vec4, opts ...Option) (*Primitive, error) {
	g, err := CustomQuad(positions, colors)
	if err != nil {
		return nil, err
	}
	return New(device, queue, ShapeQuad, g, opts...)
}
