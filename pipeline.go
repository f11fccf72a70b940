package prim

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"
)

// DefaultShaderSource is the WGSL program used when no source is supplied.
//
//go:embed shaders/primitive.wgsl
var DefaultShaderSource string

// Shader entry points every primitive program must define.
const (
	VertexEntryPoint   = "vertex_main"
	FragmentEntryPoint = "fragment_main"
)

// TargetFormat is the color attachment format pipelines are built for.
const TargetFormat = gputypes.TextureFormatBGRA8Unorm

// Pipeline is a compiled render pipeline together with the layouts a
// primitive needs to bind its transform. It does not own any per-primitive
// state and can be shared between primitives.
type Pipeline struct {
	device hal.Device
	label  string

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// NewPipeline compiles source and builds a triangle-list pipeline with two
// float32x4 vertex streams and a transform uniform at group 0, binding 0.
//
// The shader module is released once the pipeline exists. On any failure
// every object created so far is destroyed.
func NewPipeline(device hal.Device, label, source string) (*Pipeline, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if label == "" {
		label = "prim"
	}
	if err := checkShader(source); err != nil {
		return nil, err
	}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrShaderLoadFailed, label, err)
	}
	defer device.DestroyShaderModule(shader)

	p := &Pipeline{device: device, label: label}
	if err := p.build(shader); err != nil {
		p.Destroy()
		return nil, err
	}

	Logger().Debug("prim: pipeline created", "label", label)
	return p, nil
}

// checkShader parses, lowers and validates WGSL with naga and verifies both
// entry points exist with the right stage.
func checkShader(source string) error {
	if source == "" {
		return fmt.Errorf("%w: empty source", ErrShaderLoadFailed)
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderLoadFailed, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderLoadFailed, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderLoadFailed, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %w", ErrShaderLoadFailed, &verrs[0])
	}

	if !hasEntryPoint(module, ir.StageVertex, VertexEntryPoint) {
		return fmt.Errorf("%w: vertex function %q", ErrFunctionNotFound, VertexEntryPoint)
	}
	if !hasEntryPoint(module, ir.StageFragment, FragmentEntryPoint) {
		return fmt.Errorf("%w: fragment function %q", ErrFunctionNotFound, FragmentEntryPoint)
	}
	return nil
}

func hasEntryPoint(module *ir.Module, stage ir.ShaderStage, name string) bool {
	for i := range module.EntryPoints {
		if ep := &module.EntryPoints[i]; ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}

func (p *Pipeline) build(shader hal.ShaderModule) error {
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: p.label + "_transform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: TransformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: bind group layout: %w", ErrPipelineCreationFailed, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: pipeline layout: %w", ErrPipelineCreationFailed, err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: VertexEntryPoint,
			Buffers:    vertexLayouts(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    TargetFormat,
					Blend:     nil,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPipelineCreationFailed, p.label, err)
	}
	if pipeline == nil {
		return fmt.Errorf("%w: %s: device returned no pipeline", ErrPipelineCreationFailed, p.label)
	}
	p.pipeline = pipeline
	return nil
}

// vertexLayouts returns one layout per vertex stream: positions in slot 0,
// colors in slot 1.
func vertexLayouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vec4Size,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: vec4Size,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
			},
		},
	}
}

// RenderPipeline returns the compiled pipeline handle.
func (p *Pipeline) RenderPipeline() hal.RenderPipeline { return p.pipeline }

// BindGroupLayout returns the layout of the transform bind group.
func (p *Pipeline) BindGroupLayout() hal.BindGroupLayout { return p.bindLayout }

// Label returns the label the pipeline was built with.
func (p *Pipeline) Label() string { return p.label }

// Destroy releases the pipeline and its layouts in reverse creation order.
// Safe to call multiple times.
func (p *Pipeline) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
}
