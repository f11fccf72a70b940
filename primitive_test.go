package prim

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/prim/recording"
	"github.com/gogpu/wgpu/hal"
)

// countUploads replaces the primitive's queue upload with a counter that
// keeps the last payload.
func countUploads(p *Primitive) (count *int, last *[]byte) {
	var n int
	var data []byte
	p.writeBuffer = func(_ hal.Buffer, b []byte) {
		n++
		data = append(data[:0], b...)
	}
	return &n, &data
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUninitialized, "Uninitialized"},
		{StateBuffersReady, "BuffersReady"},
		{StatePipelineReady, "PipelineReady"},
		{StateDrawable, "Drawable"},
		{State(200), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestNewShapes(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		build    func() (*Primitive, error)
		shape    Shape
		vertices uint32
		indices  uint32
	}{
		{"triangle", func() (*Primitive, error) { return NewTriangle(device, queue) }, ShapeTriangle, 3, 3},
		{"quad", func() (*Primitive, error) { return NewQuad(device, queue) }, ShapeQuad, 4, 6},
		{"circle", func() (*Primitive, error) { return NewCircle(device, queue) }, ShapeCircle, 101, 300},
		{"small circle", func() (*Primitive, error) {
			return NewCircle(device, queue, WithSegments(8), WithRadius(0.25))
		}, ShapeCircle, 9, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build()
			if err != nil {
				t.Fatalf("build = %v", err)
			}
			defer p.Destroy()

			if p.State() != StateDrawable {
				t.Errorf("State() = %v, want Drawable", p.State())
			}
			if p.Shape() != tt.shape {
				t.Errorf("Shape() = %v, want %v", p.Shape(), tt.shape)
			}
			if p.VertexCount() != tt.vertices || p.IndexCount() != tt.indices {
				t.Errorf("counts = %d/%d, want %d/%d", p.VertexCount(), p.IndexCount(), tt.vertices, tt.indices)
			}
			if p.Label() != tt.shape.String() {
				t.Errorf("Label() = %q, want %q", p.Label(), tt.shape.String())
			}
		})
	}
}

func TestNewCircle_InvalidSegments(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCircle(device, queue, WithSegments(2))
	if !errors.Is(err, ErrInvalidSegments) {
		t.Errorf("err = %v, want ErrInvalidSegments", err)
	}
	if p != nil {
		t.Error("expected nil primitive")
	}
}

func TestCircleOptions_IgnoredByOtherShapes(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	circleOnly := []Option{WithSegments(8), WithRadius(0.1), WithColor(mgl32.Vec4{1, 0, 0, 1})}

	tri, err := NewTriangle(device, queue, circleOnly...)
	if err != nil {
		t.Fatal(err)
	}
	defer tri.Destroy()
	quad, err := NewQuad(device, queue, circleOnly...)
	if err != nil {
		t.Fatal(err)
	}
	defer quad.Destroy()

	if tri.VertexCount() != 3 || tri.IndexCount() != 3 {
		t.Errorf("triangle counts = %d/%d, want 3/3", tri.VertexCount(), tri.IndexCount())
	}
	if quad.VertexCount() != 4 || quad.IndexCount() != 6 {
		t.Errorf("quad counts = %d/%d, want 4/6", quad.VertexCount(), quad.IndexCount())
	}

	circle, err := NewCircle(device, queue, circleOnly...)
	if err != nil {
		t.Fatal(err)
	}
	defer circle.Destroy()
	if circle.VertexCount() != 9 || circle.IndexCount() != 24 {
		t.Errorf("circle counts = %d/%d, want 9/24", circle.VertexCount(), circle.IndexCount())
	}
}

func TestNew_NilDevice(t *testing.T) {
	if _, err := NewQuad(nil, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewQuad(nil) = %v, want ErrNilDevice", err)
	}
}

func TestNewCustom_EmptyInputCreatesNothing(t *testing.T) {
	positions := []mgl32.Vec4{{-1, -1, 0, 1}, {1, -1, 0, 1}, {0, 1, 0, 1}, {1, 1, 0, 1}}
	colors := []mgl32.Vec4{ColorGray, ColorGray, ColorGray, ColorGray}

	type ctor func(hal.Device, hal.Queue, []mgl32.Vec4, []mgl32.Vec4, ...Option) (*Primitive, error)
	tests := []struct {
		name      string
		build     ctor
		positions []mgl32.Vec4
		colors    []mgl32.Vec4
	}{
		{"triangle without positions", NewCustomTriangle, nil, colors[:3]},
		{"triangle without colors", NewCustomTriangle, positions[:3], nil},
		{"quad without positions", NewCustomQuad, nil, colors},
		{"quad without colors", NewCustomQuad, positions, nil},
		{"circle without positions", func(d hal.Device, q hal.Queue, ps, cs []mgl32.Vec4, opts ...Option) (*Primitive, error) {
			return New(d, q, ShapeCircle, Geometry{Positions: ps, Colors: cs, Indices: CircleFanIndices(3)}, opts...)
		}, nil, colors},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, queue := newFaultyDevice(t)

			p, err := tt.build(device, queue, tt.positions, tt.colors)
			if !errors.Is(err, ErrEmptyInput) {
				t.Fatalf("err = %v, want ErrEmptyInput", err)
			}
			if p != nil {
				t.Error("expected nil primitive")
			}
			if device.buffersCreated != 0 || device.pipelinesCreated != 0 || device.shadersCreated != 0 {
				t.Errorf("created %d buffers, %d pipelines, %d shaders; want none",
					device.buffersCreated, device.pipelinesCreated, device.shadersCreated)
			}
		})
	}
}

// TestDefaultQuadFrame encodes and draws the default quad once and checks the
// exact command stream.
func TestDefaultQuadFrame(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	quad, err := NewQuad(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer quad.Destroy()
	uploads, _ := countUploads(quad)

	rec := recording.NewRecorder()
	if err := quad.Encode(rec); err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	if err := quad.Draw(rec); err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	r := rec.Finish()

	if *uploads != 1 {
		t.Errorf("transform uploads = %d, want 1", *uploads)
	}
	if n := r.Count(recording.CmdSetPipeline); n != 1 {
		t.Errorf("SetPipeline calls = %d, want 1", n)
	}
	if n := r.Count(recording.CmdSetVertexBuffer); n != 2 {
		t.Errorf("SetVertexBuffer calls = %d, want 2", n)
	}
	if n := r.Count(recording.CmdDrawIndexed); n != 1 {
		t.Errorf("DrawIndexed calls = %d, want 1", n)
	}

	var sawPositions, sawColors bool
	for _, cmd := range r.Commands() {
		switch c := cmd.(type) {
		case recording.SetVertexBufferCommand:
			switch c.Slot {
			case 0:
				sawPositions = c.Buffer == quad.resources.PositionBuffer()
			case 1:
				sawColors = c.Buffer == quad.resources.ColorBuffer()
			}
		case recording.SetBindGroupCommand:
			if c.Index != 0 {
				t.Errorf("transform bound at group %d, want 0", c.Index)
			}
		case recording.SetIndexBufferCommand:
			if c.Format != gputypes.IndexFormatUint16 {
				t.Errorf("index format = %v, want uint16", c.Format)
			}
		case recording.DrawIndexedCommand:
			if c.IndexCount != 6 || c.InstanceCount != 1 || c.FirstIndex != 0 || c.BaseVertex != 0 || c.FirstInstance != 0 {
				t.Errorf("DrawIndexed = %+v, want (6, 1, 0, 0, 0)", c)
			}
		}
	}
	if !sawPositions || !sawColors {
		t.Error("position buffer must be at slot 0 and color buffer at slot 1")
	}
}

func TestDraw_IndexCountPerShape(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tri, err := NewTriangle(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer tri.Destroy()
	circle, err := NewCircle(device, queue, WithSegments(12))
	if err != nil {
		t.Fatal(err)
	}
	defer circle.Destroy()

	for _, tt := range []struct {
		p    *Primitive
		want uint32
	}{{tri, 3}, {circle, 36}} {
		rec := recording.NewRecorder()
		if err := tt.p.Draw(rec); err != nil {
			t.Fatal(err)
		}
		draw := rec.Finish().Commands()[1].(recording.DrawIndexedCommand)
		if draw.IndexCount != tt.want {
			t.Errorf("%s: IndexCount = %d, want %d", tt.p.Label(), draw.IndexCount, tt.want)
		}
	}
}

func TestEncode_UploadsCurrentTransform(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	quad, err := NewQuad(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer quad.Destroy()
	uploads, last := countUploads(quad)

	rec := recording.NewRecorder()

	// Identity is uploaded too.
	if err := quad.Encode(rec); err != nil {
		t.Fatal(err)
	}
	id := NewTransform()
	if !bytes.Equal(*last, id.Bytes()) {
		t.Error("first upload should be the identity matrix")
	}

	if err := quad.Transform().SetRotation(-math.Pi, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	quad.Transform().SetScale(0.5, 0.5, 0)
	if err := quad.Encode(rec); err != nil {
		t.Fatal(err)
	}

	if *uploads != 2 {
		t.Errorf("uploads = %d, want 2", *uploads)
	}
	if !bytes.Equal(*last, quad.Transform().Bytes()) {
		t.Error("second upload should match the modified transform")
	}
}

func TestEncode_Errors(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	quad, err := NewQuad(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	uploads, _ := countUploads(quad)

	if err := quad.Encode(nil); !errors.Is(err, ErrInvalidEncoder) {
		t.Errorf("Encode(nil) = %v, want ErrInvalidEncoder", err)
	}
	if err := quad.Draw(nil); !errors.Is(err, ErrInvalidEncoder) {
		t.Errorf("Draw(nil) = %v, want ErrInvalidEncoder", err)
	}

	quad.Destroy()
	rec := recording.NewRecorder()
	if err := quad.Encode(rec); !errors.Is(err, ErrNotDrawable) {
		t.Errorf("Encode after Destroy = %v, want ErrNotDrawable", err)
	}
	if err := quad.Draw(rec); !errors.Is(err, ErrMissingIndexBuffer) {
		t.Errorf("Draw after Destroy = %v, want ErrMissingIndexBuffer", err)
	}
	if rec.Len() != 0 {
		t.Errorf("%d commands recorded by failed calls, want 0", rec.Len())
	}
	if *uploads != 0 {
		t.Errorf("failed Encode uploaded %d times", *uploads)
	}
}

func TestEncode_ZeroPrimitive(t *testing.T) {
	var p Primitive
	if err := p.Encode(recording.NewRecorder()); !errors.Is(err, ErrNotDrawable) {
		t.Errorf("Encode() = %v, want ErrNotDrawable", err)
	}
	p.Destroy()
}

func TestNew_FailureReleasesEverything(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(d *faultyDevice)
		want   error
		pipesN int
	}{
		{"index buffer", func(d *faultyDevice) { d.failBufferAt = 3 }, ErrAllocationFailed, 0},
		{"pipeline", func(d *faultyDevice) { d.failPipeline = true }, ErrPipelineCreationFailed, 0},
		{"transform buffer", func(d *faultyDevice) { d.failBufferAt = 4 }, ErrAllocationFailed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, queue := newFaultyDevice(t)
			tt.setup(device)

			p, err := NewQuad(device, queue)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewQuad() = %v, want %v", err, tt.want)
			}
			if p != nil {
				t.Error("expected nil primitive")
			}
			if n := device.liveBuffers(); n != 0 {
				t.Errorf("%d buffers leaked", n)
			}
			if device.pipelinesCreated != tt.pipesN || device.pipelinesDestroyed != tt.pipesN {
				t.Errorf("pipelines created/destroyed = %d/%d, want %d/%d",
					device.pipelinesCreated, device.pipelinesDestroyed, tt.pipesN, tt.pipesN)
			}
		})
	}
}

func TestDestroy_ReleasesOwnedPipeline(t *testing.T) {
	device, queue := newFaultyDevice(t)

	p, err := NewTriangle(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	p.Destroy()
	p.Destroy()

	if p.State() != StateUninitialized {
		t.Errorf("State() = %v, want Uninitialized", p.State())
	}
	if device.liveBuffers() != 0 {
		t.Errorf("%d buffers alive after Destroy", device.liveBuffers())
	}
	if device.pipelinesDestroyed != 1 {
		t.Errorf("pipelines destroyed = %d, want 1", device.pipelinesDestroyed)
	}
	if p.IndexCount() != 0 || p.VertexCount() != 0 {
		t.Error("counts should be zero after Destroy")
	}
}

func TestPipelineCache_SharedAcrossPrimitives(t *testing.T) {
	device, queue := newFaultyDevice(t)
	cache := NewPipelineCache(device)

	a, err := NewQuad(device, queue, WithPipelineCache(cache), WithLabel("a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCircle(device, queue, WithPipelineCache(cache), WithLabel("b"))
	if err != nil {
		t.Fatal(err)
	}

	if a.pipeline != b.pipeline {
		t.Error("primitives should share the cached pipeline")
	}
	if device.pipelinesCreated != 1 {
		t.Errorf("pipelines created = %d, want 1", device.pipelinesCreated)
	}

	a.Destroy()
	b.Destroy()
	if device.pipelinesDestroyed != 0 {
		t.Error("primitives must not destroy a cached pipeline")
	}

	cache.Destroy()
	if device.pipelinesDestroyed != 1 {
		t.Errorf("pipelines destroyed after cache Destroy = %d, want 1", device.pipelinesDestroyed)
	}
}

func TestWithShaderSource_Invalid(t *testing.T) {
	device, queue := newFaultyDevice(t)

	_, err := NewQuad(device, queue, WithShaderSource("@vertex fn nope() {}"))
	if !errors.Is(err, ErrShaderLoadFailed) && !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("err = %v, want shader error", err)
	}
	if device.liveBuffers() != 0 {
		t.Errorf("%d buffers leaked", device.liveBuffers())
	}
}

func TestDefaultScene(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	positions := []mgl32.Vec4{
		{-0.75, 0.75, 0, 1},
		{0, 0.75, 0, 1},
		{0, 0, 0, 1},
		{-0.75, 0, 0, 1},
	}
	gray := []mgl32.Vec4{ColorGray, ColorGray, ColorGray, ColorGray}
	red := mgl32.Vec4{1, 0, 0, 1}

	q1, err := NewCustomQuad(device, queue, positions, gray, WithLabel("quad1"))
	if err != nil {
		t.Fatal(err)
	}
	defer q1.Destroy()
	q2, err := NewCustomQuad(device, queue, positions, []mgl32.Vec4{red, red, red, red}, WithLabel("quad2"))
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Destroy()

	if err := q2.Transform().SetRotation(-math.Pi, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	q2.Transform().SetScale(0.5, 0.5, 0)

	rec := recording.NewRecorder()
	for _, p := range []*Primitive{q1, q2} {
		if err := p.Encode(rec); err != nil {
			t.Fatal(err)
		}
		if err := p.Draw(rec); err != nil {
			t.Fatal(err)
		}
	}
	r := rec.Finish()
	if r.Count(recording.CmdDrawIndexed) != 2 {
		t.Errorf("DrawIndexed calls = %d, want 2", r.Count(recording.CmdDrawIndexed))
	}
}
