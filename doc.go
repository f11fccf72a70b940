// Package prim draws flat-colored 2D primitives with the gogpu WebGPU HAL.
//
// # Overview
//
// A Primitive is a triangle, quad or circle together with everything needed
// to put it on screen: vertex, color and index buffers, a render pipeline and
// a model transform. Once constructed it records itself into any render pass
// in two steps, Encode (upload the transform, bind pipeline and buffers) and
// Draw (bind indices, issue one indexed draw).
//
// # Quick Start
//
//	quad, err := prim.NewQuad(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer quad.Destroy()
//
//	quad.Transform().SetScale(0.5, 0.5, 1)
//
//	// inside a render pass targeting a BGRA8Unorm view
//	if err := quad.Encode(pass); err != nil {
//	    return err
//	}
//	if err := quad.Draw(pass); err != nil {
//	    return err
//	}
//
// # Lifecycle
//
// Construction moves a primitive through Uninitialized, BuffersReady,
// PipelineReady and Drawable. Any failure along the way releases what was
// built and returns an error, so callers only ever hold Drawable primitives.
// Destroy returns a primitive to Uninitialized.
//
// # Pipelines
//
// By default each primitive compiles its own pipeline from
// DefaultShaderSource. Primitives created with WithPipelineCache share one
// pipeline per shader program instead.
//
// # Coordinate System
//
// Positions are homogeneous clip-space coordinates: x and y in [-1, 1],
// origin at the center, y up. The model transform is applied in the vertex
// shader.
//
// # Related packages
//
//   - render: device bootstrap, offscreen surface and frame loop
//   - recording: an encoder that records commands instead of executing them
//   - config: YAML/TOML scene description
package prim
