package prim

import "errors"

// Construction errors. These abort construction of the object that hit
// them; nothing partially built is returned to the caller.
var (
	// ErrEmptyInput is returned when a vertex, color or index list is empty.
	ErrEmptyInput = errors.New("prim: empty input")

	// ErrCountMismatch is returned when the color list is not the same
	// length as the position list.
	ErrCountMismatch = errors.New("prim: vertex and color counts differ")

	// ErrIndexOutOfRange is returned when an index references a vertex that
	// does not exist.
	ErrIndexOutOfRange = errors.New("prim: index out of range")

	// ErrTooManyVertices is returned when geometry cannot be addressed by
	// 16-bit indices.
	ErrTooManyVertices = errors.New("prim: too many vertices for uint16 indices")

	// ErrInvalidSegments is returned for a circle with fewer than 3 segments.
	ErrInvalidSegments = errors.New("prim: circle needs at least 3 segments")

	// ErrAllocationFailed is returned when the device cannot allocate a buffer.
	ErrAllocationFailed = errors.New("prim: GPU allocation failed")

	// ErrShaderLoadFailed is returned when shader source is missing or does
	// not compile.
	ErrShaderLoadFailed = errors.New("prim: shader load failed")

	// ErrFunctionNotFound is returned when the shader lacks vertex_main or
	// fragment_main.
	ErrFunctionNotFound = errors.New("prim: shader entry point not found")

	// ErrPipelineCreationFailed is returned when the backend rejects the
	// render pipeline or its layouts.
	ErrPipelineCreationFailed = errors.New("prim: render pipeline creation failed")

	// ErrNilDevice is returned when a constructor receives a nil device or queue.
	ErrNilDevice = errors.New("prim: device or queue is nil")
)

// Encode/draw contract errors. These indicate programmer error.
var (
	// ErrNotDrawable is returned by Encode when the primitive has not
	// finished construction or has been destroyed.
	ErrNotDrawable = errors.New("prim: primitive is not drawable")

	// ErrInvalidEncoder is returned when Encode or Draw receives a nil encoder.
	ErrInvalidEncoder = errors.New("prim: encoder is nil")

	// ErrMissingIndexBuffer is returned by Draw when no index buffer exists.
	ErrMissingIndexBuffer = errors.New("prim: missing index buffer")
)

// ErrInvalidAxis is returned by Transform.SetRotation for a zero-length axis.
var ErrInvalidAxis = errors.New("prim: rotation axis has zero length")
