package prim

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TransformSize is the byte size of an encoded transform matrix.
const TransformSize = 64

// Transform holds the model matrix of a primitive.
//
// The zero value is the identity transform. SetRotation replaces the matrix;
// SetScale and SetTranslation compose into it by right-multiplication in
// model space (M = M·S, M = M·T), so call order matters: a translation
// applied after a scale is itself scaled.
//
// A Transform is not safe for concurrent use.
type Transform struct {
	m    mgl32.Mat4
	init bool
}

// NewTransform returns an identity transform.
func NewTransform() Transform {
	return Transform{m: mgl32.Ident4(), init: true}
}

// Reset sets the matrix to identity.
func (t *Transform) Reset() {
	t.m = mgl32.Ident4()
	t.init = true
}

// SetRotation sets the matrix to a rotation of angle radians about the axis
// (x, y, z). The axis is normalized; a zero-length or non-finite axis returns
// ErrInvalidAxis and leaves the matrix unchanged.
func (t *Transform) SetRotation(angle, x, y, z float32) error {
	axis := mgl32.Vec3{x, y, z}
	l := axis.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return ErrInvalidAxis
	}
	t.m = mgl32.HomogRotate3D(angle, axis.Mul(1/l))
	t.init = true
	return nil
}

// SetScale composes a scale by (sx, sy, sz) into the matrix.
func (t *Transform) SetScale(sx, sy, sz float32) {
	t.compose(mgl32.Scale3D(sx, sy, sz))
}

// SetTranslation composes a translation by (tx, ty, tz) into the matrix.
func (t *Transform) SetTranslation(tx, ty, tz float32) {
	t.compose(mgl32.Translate3D(tx, ty, tz))
}

// Matrix returns the current matrix. The result is a copy; mutate the
// transform through its methods.
func (t *Transform) Matrix() mgl32.Mat4 {
	if !t.init {
		return mgl32.Ident4()
	}
	return t.m
}

// Bytes returns the matrix as 64 little-endian bytes in column-major order,
// the layout of a WGSL mat4x4<f32> uniform.
func (t *Transform) Bytes() []byte {
	return t.appendBytes(make([]byte, 0, TransformSize))
}

func (t *Transform) appendBytes(buf []byte) []byte {
	m := t.Matrix()
	for _, v := range m {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func (t *Transform) compose(rhs mgl32.Mat4) {
	t.m = t.Matrix().Mul4(rhs)
	t.init = true
}
