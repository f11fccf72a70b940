// Package recording captures render-pass commands instead of executing them.
//
// A Recorder satisfies the encoder interface primitives draw into, so tests
// and tools can inspect exactly what a frame would submit: which pipeline was
// bound, which buffers went to which slots, and how many indices were drawn.
// A finished Recording can be replayed onto a live hal.RenderPassEncoder;
// render.Loop stages every primitive this way so a primitive that fails
// part-way contributes no commands to the frame.
//
// # Example
//
//	rec := recording.NewRecorder()
//	if err := quad.Encode(rec); err != nil {
//	    return err
//	}
//	if err := quad.Draw(rec); err != nil {
//	    return err
//	}
//	r := rec.Finish()
//	fmt.Println(r.Count(recording.CmdDrawIndexed)) // 1
//
//	// later, inside a real render pass
//	r.Playback(pass)
package recording

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Binding commands
	CmdSetPipeline     CommandType = iota // Bind a render pipeline
	CmdSetBindGroup                       // Bind a bind group
	CmdSetVertexBuffer                    // Bind a vertex buffer to a slot
	CmdSetIndexBuffer                     // Bind the index buffer

	// Draw commands
	CmdDrawIndexed // Indexed draw
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdSetPipeline:     "SetPipeline",
	CmdSetBindGroup:    "SetBindGroup",
	CmdSetVertexBuffer: "SetVertexBuffer",
	CmdSetIndexBuffer:  "SetIndexBuffer",
	CmdDrawIndexed:     "DrawIndexed",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// SetPipelineCommand binds a render pipeline.
type SetPipelineCommand struct {
	Pipeline hal.RenderPipeline
}

// Type implements Command.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetBindGroupCommand binds a bind group at Index.
type SetBindGroupCommand struct {
	Index   uint32
	Group   hal.BindGroup
	Offsets []uint32
}

// Type implements Command.
func (SetBindGroupCommand) Type() CommandType { return CmdSetBindGroup }

// SetVertexBufferCommand binds Buffer to vertex buffer Slot.
type SetVertexBufferCommand struct {
	Slot   uint32
	Buffer hal.Buffer
	Offset uint64
}

// Type implements Command.
func (SetVertexBufferCommand) Type() CommandType { return CmdSetVertexBuffer }

// SetIndexBufferCommand binds the index buffer.
type SetIndexBufferCommand struct {
	Buffer hal.Buffer
	Format gputypes.IndexFormat
	Offset uint64
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// DrawIndexedCommand issues an indexed draw.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }
