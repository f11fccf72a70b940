package prim

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape identifies the kind of a primitive.
type Shape uint8

const (
	ShapeTriangle Shape = iota
	ShapeQuad
	ShapeCircle
)

var shapeNames = [...]string{
	ShapeTriangle: "triangle",
	ShapeQuad:     "quad",
	ShapeCircle:   "circle",
}

// String returns the lower-case shape name.
func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// ParseShape returns the Shape named by s (case-insensitive).
func ParseShape(s string) (Shape, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("prim: unknown shape %q", s)
}

// Circle defaults.
const (
	DefaultCircleSegments = 100
	DefaultCircleRadius   = 0.5
)

// Default colors used by the shape builders.
var (
	ColorGray       = mgl32.Vec4{0.5, 0.5, 0.5, 1}
	ColorBlue       = mgl32.Vec4{0, 0, 1, 1}
	ColorCircleRose = mgl32.Vec4{0.4, 0.2, 0.3, 1}
)

// Fixed index patterns. Copies are handed out so callers cannot alter them.
var (
	triangleIndices = [3]uint16{0, 1, 2}
	quadIndices     = [6]uint16{0, 2, 3, 0, 1, 2}
)

// Geometry is the CPU-side description of a primitive: homogeneous vertex
// positions, one color per vertex, and a triangle-list index buffer.
type Geometry struct {
	Positions []mgl32.Vec4
	Colors    []mgl32.Vec4
	Indices   []uint16
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return len(g.Positions) }

// IndexCount returns the number of indices.
func (g *Geometry) IndexCount() int { return len(g.Indices) }

// Validate checks the geometry invariants: non-empty lists, one color per
// position, every index in range and a vertex count addressable by uint16.
func (g *Geometry) Validate() error {
	if len(g.Positions) == 0 {
		return fmt.Errorf("positions: %w", ErrEmptyInput)
	}
	if len(g.Colors) == 0 {
		return fmt.Errorf("colors: %w", ErrEmptyInput)
	}
	if len(g.Indices) == 0 {
		return fmt.Errorf("indices: %w", ErrEmptyInput)
	}
	if len(g.Colors) != len(g.Positions) {
		return fmt.Errorf("%w: %d positions, %d colors", ErrCountMismatch, len(g.Positions), len(g.Colors))
	}
	if len(g.Positions) > math.MaxUint16+1 {
		return fmt.Errorf("%w: %d", ErrTooManyVertices, len(g.Positions))
	}
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Positions) {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrIndexOutOfRange, idx, i, len(g.Positions))
		}
	}
	return nil
}

// TriangleGeometry returns the default triangle: three gray vertices around
// the origin.
func TriangleGeometry() Geometry {
	return Geometry{
		Positions: []mgl32.Vec4{
			{0.0, 0.5, 0.0, 1.0},
			{-0.5, -0.5, 0.0, 1.0},
			{0.5, -0.5, 0.0, 1.0},
		},
		Colors:  uniformColors(ColorGray, 3),
		Indices: append([]uint16(nil), triangleIndices[:]...),
	}
}

// QuadGeometry returns the default quad: a blue unit square with corners in
// top-left, top-right, bottom-right, bottom-left order, split along the
// 0–2 diagonal.
func QuadGeometry() Geometry {
	return Geometry{
		Positions: []mgl32.Vec4{
			{-0.5, 0.5, 0.0, 1.0},
			{0.5, 0.5, 0.0, 1.0},
			{0.5, -0.5, 0.0, 1.0},
			{-0.5, -0.5, 0.0, 1.0},
		},
		Colors:  uniformColors(ColorBlue, 4),
		Indices: append([]uint16(nil), quadIndices[:]...),
	}
}

// CircleGeometry returns a filled circle of the given radius centered at the
// origin. Vertex 0 is the center; vertices 1..segments lie on the rim at
// angle i·2π/segments. The indices form a triangle fan around the center,
// 3·segments indices in total.
func CircleGeometry(segments int, radius float32, color mgl32.Vec4) (Geometry, error) {
	if segments < 3 {
		return Geometry{}, fmt.Errorf("%w: got %d", ErrInvalidSegments, segments)
	}
	if segments > math.MaxUint16 {
		return Geometry{}, fmt.Errorf("%w: %d segments", ErrTooManyVertices, segments)
	}

	step := 2 * math.Pi / float64(segments)
	positions := make([]mgl32.Vec4, 0, segments+1)
	positions = append(positions, mgl32.Vec4{0, 0, 0, 1})
	for i := 1; i <= segments; i++ {
		a := float64(i) * step
		positions = append(positions, mgl32.Vec4{
			radius * float32(math.Cos(a)),
			radius * float32(math.Sin(a)),
			0, 1,
		})
	}

	return Geometry{
		Positions: positions,
		Colors:    uniformColors(color, segments+1),
		Indices:   CircleFanIndices(segments),
	}, nil
}

// CircleFanIndices returns the triangle-fan indices for a circle with the
// given number of rim vertices: {0, i, i+1} for each i in [1, segments],
// wrapping the last triangle back to vertex 1.
func CircleFanIndices(segments int) []uint16 {
	if segments <= 0 {
		return nil
	}
	indices := make([]uint16, 0, 3*segments)
	for i := 1; i <= segments; i++ {
		next := i + 1
		if i == segments {
			next = 1
		}
		indices = append(indices, 0, uint16(i), uint16(next)) //nolint:gosec // segments checked against MaxUint16
	}
	return indices
}

// CustomTriangle returns triangle geometry from caller-supplied vertices and
// colors. Indices are always {0, 1, 2}.
func CustomTriangle(positions, colors []mgl32.Vec4) (Geometry, error) {
	return custom(positions, colors, triangleIndices[:])
}

// CustomQuad returns quad geometry from caller-supplied vertices and colors,
// given in top-left, top-right, bottom-right, bottom-left order. Indices are
// always {0, 2, 3, 0, 1, 2}.
func CustomQuad(positions, colors []mgl32.Vec4) (Geometry, error) {
	return custom(positions, colors, quadIndices[:])
}

func custom(positions, colors []mgl32.Vec4, indices []uint16) (Geometry, error) {
	if len(positions) == 0 {
		return Geometry{}, fmt.Errorf("no vertices defined: %w", ErrEmptyInput)
	}
	if len(colors) == 0 {
		return Geometry{}, fmt.Errorf("no color defined: %w", ErrEmptyInput)
	}
	g := Geometry{
		Positions: append([]mgl32.Vec4(nil), positions...),
		Colors:    append([]mgl32.Vec4(nil), colors...),
		Indices:   append([]uint16(nil), indices...),
	}
	return g, nil
}

func uniformColors(c mgl32.Vec4, n int) []mgl32.Vec4 {
	colors := make([]mgl32.Vec4, n)
	for i := range colors {
		colors[i] = c
	}
	return colors
}
