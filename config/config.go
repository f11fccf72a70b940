// Package config describes a scene of primitives and how to render it.
//
// A Config can be loaded from YAML (.yaml, .yml) or TOML (.toml):
//
//	width: 600
//	height: 600
//	frames: 120
//	primitives:
//	  - shape: circle
//	    segments: 64
//	    radius: 0.3
//	  - shape: quad
//	    color: [1, 0, 0, 1]
//	    rotation: {angle: -3.14159, axis: [0, 0, 1]}
//	    scale: [0.5, 0.5, 1]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/prim"
	"github.com/gogpu/wgpu/hal"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// maxSize bounds the surface dimensions.
const maxSize = 16384

// Config is a scene and its render settings.
type Config struct {
	Width          uint32            `yaml:"width" toml:"width"`
	Height         uint32            `yaml:"height" toml:"height"`
	Frames         int               `yaml:"frames" toml:"frames"`
	Backend        string            `yaml:"backend" toml:"backend"`
	ClearColor     []float64         `yaml:"clear_color,omitempty" toml:"clear_color,omitempty"`
	LogFPS         bool              `yaml:"log_fps" toml:"log_fps"`
	SharePipelines bool              `yaml:"share_pipelines" toml:"share_pipelines"`
	Primitives     []PrimitiveConfig `yaml:"primitives" toml:"primitives"`
}

// PrimitiveConfig describes one primitive.
//
// Positions and Colors override the shape's default geometry (triangle and
// quad only). Color recolors every vertex when Colors is empty. Segments
// and Radius apply to circles; zero means the default.
type PrimitiveConfig struct {
	Label     string      `yaml:"label,omitempty" toml:"label,omitempty"`
	Shape     string      `yaml:"shape" toml:"shape"`
	Positions [][]float32 `yaml:"positions,omitempty" toml:"positions,omitempty"`
	Colors    [][]float32 `yaml:"colors,omitempty" toml:"colors,omitempty"`
	Color     []float32   `yaml:"color,omitempty" toml:"color,omitempty"`
	Segments  int         `yaml:"segments,omitempty" toml:"segments,omitempty"`
	Radius    float32     `yaml:"radius,omitempty" toml:"radius,omitempty"`

	Rotation    *Rotation `yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Scale       []float32 `yaml:"scale,omitempty" toml:"scale,omitempty"`
	Translation []float32 `yaml:"translation,omitempty" toml:"translation,omitempty"`
}

// Rotation is an angle in radians about an axis.
type Rotation struct {
	Angle float32   `yaml:"angle" toml:"angle"`
	Axis  []float32 `yaml:"axis" toml:"axis"`
}

// Default returns the startup scene: a gray quad in the upper-left quadrant
// and a red copy turned half a revolution about -z and scaled by one half.
func Default() *Config {
	positions := [][]float32{
		{-0.75, 0.75, 0, 1},
		{0, 0.75, 0, 1},
		{0, 0, 0, 1},
		{-0.75, 0, 0, 1},
	}
	return &Config{
		Width:   600,
		Height:  600,
		Frames:  60,
		Backend: "vulkan",
		Primitives: []PrimitiveConfig{
			{
				Label:     "quad1",
				Shape:     "quad",
				Positions: positions,
				Color:     []float32{0.5, 0.5, 0.5, 1},
			},
			{
				Label:     "quad2",
				Shape:     "quad",
				Positions: positions,
				Color:     []float32{1, 0, 0, 1},
				Rotation:  &Rotation{Angle: -math.Pi, Axis: []float32{0, 0, 1}},
				Scale:     []float32{0.5, 0.5, 0},
			},
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	prim.Logger().Debug("config: loaded", "path", path, "primitives", len(cfg.Primitives))
	return cfg, nil
}

// Parse decodes and validates data. Fields missing from data keep the
// values of Default, except Primitives, which replace the default scene
// when present.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	cfg.Primitives = nil

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unknown format %q", format)
	}

	if len(cfg.Primitives) == 0 {
		prim.Logger().Warn("config: no primitives defined, using the default scene")
		cfg.Primitives = Default().Primitives
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes c in the given format.
func (c *Config) Write(w io.Writer, format Format) error {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown format %q", format)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ClearValue returns ClearColor as a render pass clear value. ok is false
// when no clear color is configured.
func (c *Config) ClearValue() (color gputypes.Color, ok bool) {
	if len(c.ClearColor) != 4 {
		return gputypes.Color{}, false
	}
	return gputypes.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}, true
}

// Validate checks sizes, frame count and every primitive.
func (c *Config) Validate() error {
	if c.Width == 0 || c.Height == 0 || c.Width > maxSize || c.Height > maxSize {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames)
	}
	if c.ClearColor != nil && len(c.ClearColor) != 4 {
		return fmt.Errorf("%w: clear_color needs 4 components, got %d", ErrInvalid, len(c.ClearColor))
	}
	for i := range c.Primitives {
		if err := c.Primitives[i].Validate(); err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the shape name and the length of every vector.
func (p *PrimitiveConfig) Validate() error {
	shape, err := prim.ParseShape(p.Shape)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if shape == prim.ShapeCircle && (len(p.Positions) > 0 || len(p.Colors) > 0) {
		return fmt.Errorf("%w: circles take segments, radius and color, not vertex lists", ErrInvalid)
	}
	if p.Segments < 0 || p.Radius < 0 {
		return fmt.Errorf("%w: negative segments or radius", ErrInvalid)
	}
	for _, v := range p.Positions {
		if len(v) != 4 {
			return fmt.Errorf("%w: position needs 4 components, got %d", ErrInvalid, len(v))
		}
	}
	for _, v := range p.Colors {
		if len(v) != 4 {
			return fmt.Errorf("%w: color needs 4 components, got %d", ErrInvalid, len(v))
		}
	}
	if p.Color != nil && len(p.Color) != 4 {
		return fmt.Errorf("%w: color needs 4 components, got %d", ErrInvalid, len(p.Color))
	}
	if p.Rotation != nil && len(p.Rotation.Axis) != 3 {
		return fmt.Errorf("%w: rotation axis needs 3 components", ErrInvalid)
	}
	if p.Scale != nil && len(p.Scale) != 3 {
		return fmt.Errorf("%w: scale needs 3 components", ErrInvalid)
	}
	if p.Translation != nil && len(p.Translation) != 3 {
		return fmt.Errorf("%w: translation needs 3 components", ErrInvalid)
	}
	return nil
}

// Geometry returns the shape and CPU geometry the entry describes.
func (p *PrimitiveConfig) Geometry() (prim.Shape, prim.Geometry, error) {
	if err := p.Validate(); err != nil {
		return 0, prim.Geometry{}, err
	}
	shape, _ := prim.ParseShape(p.Shape)

	var (
		g   prim.Geometry
		err error
	)
	switch shape {
	case prim.ShapeCircle:
		segments, radius, color := prim.DefaultCircleSegments, float32(prim.DefaultCircleRadius), prim.ColorCircleRose
		if p.Segments > 0 {
			segments = p.Segments
		}
		if p.Radius > 0 {
			radius = p.Radius
		}
		if p.Color != nil {
			color = vec4(p.Color)
		}
		g, err = prim.CircleGeometry(segments, radius, color)
	case prim.ShapeTriangle:
		if len(p.Positions) > 0 {
			g, err = prim.CustomTriangle(vec4s(p.Positions), p.colors(len(p.Positions)))
		} else {
			g = prim.TriangleGeometry()
		}
	case prim.ShapeQuad:
		if len(p.Positions) > 0 {
			g, err = prim.CustomQuad(vec4s(p.Positions), p.colors(len(p.Positions)))
		} else {
			g = prim.QuadGeometry()
		}
	}
	if err != nil {
		return shape, prim.Geometry{}, err
	}
	if len(p.Positions) == 0 && p.Color != nil {
		c := vec4(p.Color)
		for i := range g.Colors {
			g.Colors[i] = c
		}
	}
	return shape, g, nil
}

// colors returns the per-vertex colors, expanding Color when no list is
// given.
func (p *PrimitiveConfig) colors(n int) []mgl32.Vec4 {
	if len(p.Colors) > 0 {
		return vec4s(p.Colors)
	}
	if p.Color == nil {
		return nil
	}
	c := vec4(p.Color)
	out := make([]mgl32.Vec4, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// Build creates the primitive and applies its transform. Rotation is applied
// first, then scale, then translation.
func (p *PrimitiveConfig) Build(device hal.Device, queue hal.Queue, opts ...prim.Option) (*prim.Primitive, error) {
	shape, g, err := p.Geometry()
	if err != nil {
		return nil, err
	}
	if p.Label != "" {
		opts = append(opts, prim.WithLabel(p.Label))
	}
	pr, err := prim.New(device, queue, shape, g, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyTransform(pr.Transform()); err != nil {
		pr.Destroy()
		return nil, err
	}
	return pr, nil
}

// ApplyTransform writes the entry's rotation, scale and translation into t.
func (p *PrimitiveConfig) ApplyTransform(t *prim.Transform) error {
	if r := p.Rotation; r != nil {
		if err := t.SetRotation(r.Angle, r.Axis[0], r.Axis[1], r.Axis[2]); err != nil {
			return fmt.Errorf("%s: %w", p.Label, err)
		}
	}
	if s := p.Scale; s != nil {
		t.SetScale(s[0], s[1], s[2])
	}
	if tr := p.Translation; tr != nil {
		t.SetTranslation(tr[0], tr[1], tr[2])
	}
	return nil
}

func vec4(v []float32) mgl32.Vec4 {
	return mgl32.Vec4{v[0], v[1], v[2], v[3]}
}

func vec4s(vs [][]float32) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(vs))
	for i, v := range vs {
		out[i] = vec4(v)
	}
	return out
}
