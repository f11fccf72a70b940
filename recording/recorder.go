package recording

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Encoder is the set of render-pass methods a Recording replays. Every
// hal.RenderPassEncoder satisfies it, as does Recorder itself.
type Encoder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Recorder captures encoder calls as commands. Use Finish to obtain an
// immutable Recording.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	commands []Command
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{commands: make([]Command, 0, 16)}
}

// SetPipeline records a pipeline bind.
func (r *Recorder) SetPipeline(pipeline hal.RenderPipeline) {
	r.commands = append(r.commands, SetPipelineCommand{Pipeline: pipeline})
}

// SetBindGroup records a bind group bind. Offsets are copied.
func (r *Recorder) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	var offs []uint32
	if len(offsets) > 0 {
		offs = append(offs, offsets...)
	}
	r.commands = append(r.commands, SetBindGroupCommand{Index: index, Group: group, Offsets: offs})
}

// SetVertexBuffer records a vertex buffer bind.
func (r *Recorder) SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64) {
	r.commands = append(r.commands, SetVertexBufferCommand{Slot: slot, Buffer: buffer, Offset: offset})
}

// SetIndexBuffer records an index buffer bind.
func (r *Recorder) SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	r.commands = append(r.commands, SetIndexBufferCommand{Buffer: buffer, Format: format, Offset: offset})
}

// DrawIndexed records an indexed draw.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	r.commands = append(r.commands, DrawIndexedCommand{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

// Len returns the number of commands recorded so far.
func (r *Recorder) Len() int { return len(r.commands) }

// Reset discards all recorded commands.
func (r *Recorder) Reset() { r.commands = r.commands[:0] }

// Finish returns a Recording of the commands captured so far. The Recorder
// is reset and can be reused.
func (r *Recorder) Finish() *Recording {
	cmds := make([]Command, len(r.commands))
	copy(cmds, r.commands)
	r.Reset()
	return &Recording{commands: cmds}
}

// Recording is an immutable sequence of encoder commands.
type Recording struct {
	commands []Command
}

// Commands returns the recorded commands. The returned slice must not be
// modified.
func (r *Recording) Commands() []Command { return r.commands }

// Len returns the number of commands.
func (r *Recording) Len() int { return len(r.commands) }

// Count returns how many commands of type t were recorded.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Types returns the command types in recording order.
func (r *Recording) Types() []CommandType {
	types := make([]CommandType, len(r.commands))
	for i, c := range r.commands {
		types[i] = c.Type()
	}
	return types
}

// Playback replays the recording onto enc in order.
func (r *Recording) Playback(enc Encoder) {
	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case SetPipelineCommand:
			enc.SetPipeline(c.Pipeline)
		case SetBindGroupCommand:
			enc.SetBindGroup(c.Index, c.Group, c.Offsets)
		case SetVertexBufferCommand:
			enc.SetVertexBuffer(c.Slot, c.Buffer, c.Offset)
		case SetIndexBufferCommand:
			enc.SetIndexBuffer(c.Buffer, c.Format, c.Offset)
		case DrawIndexedCommand:
			enc.DrawIndexed(c.IndexCount, c.InstanceCount, c.FirstIndex, c.BaseVertex, c.FirstInstance)
		}
	}
}
