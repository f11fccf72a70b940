// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/prim"
	"github.com/gogpu/prim/recording"
	"github.com/gogpu/wgpu/hal"
)

// DefaultClearColor is the color every frame starts from.
var DefaultClearColor = gputypes.Color{R: 1, G: 1, B: 1, A: 1}

// FrameStats describes one rendered frame.
type FrameStats struct {
	// Index is the zero-based frame number.
	Index uint64
	// Drawn is the number of primitives encoded and drawn.
	Drawn int
	// Skipped is the number of primitives that failed to encode or draw.
	Skipped int
	// Duration is the CPU time spent building and submitting the frame.
	Duration time.Duration
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClearColor sets the color each frame is cleared to.
func WithClearColor(c gputypes.Color) LoopOption {
	return func(l *Loop) {
		l.clearColor = c
	}
}

// WithMaxFrames stops Run after n frames. Zero means run until the context
// is canceled.
func WithMaxFrames(n int) LoopOption {
	return func(l *Loop) {
		l.maxFrames = n
	}
}

// WithFPSLogging logs the frame rate once per second at info level and the
// per-frame delta at debug level.
func WithFPSLogging(enabled bool) LoopOption {
	return func(l *Loop) {
		l.logFPS = enabled
	}
}

// WithFrameCallback calls fn after every frame.
func WithFrameCallback(fn func(FrameStats)) LoopOption {
	return func(l *Loop) {
		l.onFrame = fn
	}
}

// Loop renders a list of primitives into a surface, one render pass per
// frame, in painter's order.
//
// A Loop is not safe for concurrent use.
type Loop struct {
	device hal.Device
	queue  hal.Queue

	clearColor gputypes.Color
	maxFrames  int
	logFPS     bool
	onFrame    func(FrameStats)

	// rec stages each primitive's commands so a failing primitive
	// leaves nothing in the pass.
	rec *recording.Recorder

	frame uint64
	fps   fpsCounter
	now   func() time.Time
}

// NewLoop creates a Loop submitting to d.
func NewLoop(d *Device, opts ...LoopOption) *Loop {
	l := &Loop{
		device:     d.HalDevice(),
		queue:      d.HalQueue(),
		clearColor: DefaultClearColor,
		rec:        recording.NewRecorder(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Frames returns the number of frames rendered so far.
func (l *Loop) Frames() uint64 { return l.frame }

// RenderFrame renders one frame: acquire, clear, Encode and Draw for every
// primitive, submit, wait, present. A primitive that fails to encode or draw
// is logged and skipped; the rest of the frame still renders.
func (l *Loop) RenderFrame(s Surface, prims []*prim.Primitive) (FrameStats, error) {
	start := l.now()
	stats := FrameStats{Index: l.frame}

	view, err := s.Acquire()
	if err != nil {
		if !errors.Is(err, ErrSurfaceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
		}
		return stats, err
	}

	encoder, err := l.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "prim_frame_encoder",
	})
	if err != nil {
		return stats, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("prim_frame"); err != nil {
		encoder.Destroy()
		return stats, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "prim_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: l.clearColor,
		}},
	})
	for _, p := range prims {
		if err := l.drawPrimitive(rp, p); err != nil {
			stats.Skipped++
			label := "<nil>"
			if p != nil {
				label = p.Label()
			}
			prim.Logger().Warn("render: primitive skipped",
				"frame", l.frame, "label", label, "error", err)
			continue
		}
		stats.Drawn++
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return stats, fmt.Errorf("end encoding: %w", err)
	}
	defer l.device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(l.device, l.queue, cmdBuf); err != nil {
		return stats, err
	}
	if err := s.Present(); err != nil {
		return stats, fmt.Errorf("present: %w", err)
	}

	end := l.now()
	stats.Duration = end.Sub(start)
	l.frame++
	l.reportFPS(end)
	if l.onFrame != nil {
		l.onFrame(stats)
	}
	return stats, nil
}

// drawPrimitive records p's Encode and Draw and replays them onto pass only
// when both succeed.
func (l *Loop) drawPrimitive(pass recording.Encoder, p *prim.Primitive) error {
	if p == nil {
		return prim.ErrNotDrawable
	}
	l.rec.Reset()
	if err := p.Encode(l.rec); err != nil {
		return err
	}
	if err := p.Draw(l.rec); err != nil {
		return err
	}
	l.rec.Finish().Playback(pass)
	return nil
}

// Run renders frames until ctx is canceled, the frame limit is reached, or a
// frame fails. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context, s Surface, prims []*prim.Primitive) error {
	for {
		if l.maxFrames > 0 && l.frame >= uint64(l.maxFrames) { //nolint:gosec // maxFrames checked positive
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if _, err := l.RenderFrame(s, prims); err != nil {
			return fmt.Errorf("frame %d: %w", l.frame, err)
		}
	}
}

func (l *Loop) reportFPS(now time.Time) {
	if !l.logFPS {
		return
	}
	delta, fps, report := l.fps.tick(now)
	log := prim.Logger()
	log.Debug("render: frame", "index", l.frame, "delta", delta)
	if report {
		log.Info("render: frame rate", "fps", fps, "frames", l.frame)
	}
}
