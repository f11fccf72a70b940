package prim

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderEncoder is the part of hal.RenderPassEncoder a primitive records
// into. A live render pass satisfies it, as does recording.Recorder.
type RenderEncoder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Binding slots shared by the pipeline layout and Encode.
const (
	positionSlot   uint32 = 0
	colorSlot      uint32 = 1
	transformGroup uint32 = 0
)
