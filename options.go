package prim

import "github.com/go-gl/mathgl/mgl32"

// Option configures a Primitive during creation.
//
// Example:
//
//	cache := prim.NewPipelineCache(device)
//	c, err := prim.NewCircle(device, queue,
//	    prim.WithPipelineCache(cache),
//	    prim.WithSegments(64),
//	    prim.WithRadius(0.25))
type Option func(*options)

// options holds optional configuration for Primitive creation.
type options struct {
	cache    *PipelineCache
	source   string
	label    string
	segments int
	radius   float32
	color    mgl32.Vec4
}

// defaultOptions returns the default primitive options.
func defaultOptions() options {
	return options{
		source:   DefaultShaderSource,
		segments: DefaultCircleSegments,
		radius:   DefaultCircleRadius,
		color:    ColorCircleRose,
	}
}

// WithPipelineCache makes the primitive borrow its pipeline from c instead
// of building and owning one.
func WithPipelineCache(c *PipelineCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithShaderSource replaces the default WGSL program. The program must define
// vertex_main and fragment_main and match the default vertex and binding
// layout.
func WithShaderSource(src string) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithLabel sets the label used for GPU objects and log messages.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithSegments sets the number of rim vertices of a circle. Only NewCircle
// reads it; other constructors ignore it.
func WithSegments(n int) Option {
	return func(o *options) {
		o.segments = n
	}
}

// WithRadius sets the radius of a circle. Only NewCircle reads it.
func WithRadius(r float32) Option {
	return func(o *options) {
		o.radius = r
	}
}

// WithColor sets the fill color of a circle. Only NewCircle reads it;
// triangles and quads take per-vertex colors through NewCustomTriangle and
// NewCustomQuad.
func WithColor(c mgl32.Vec4) Option {
	return func(o *options) {
		o.color = c
	}
}
