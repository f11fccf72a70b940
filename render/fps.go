// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "time"

// fpsCounter counts frames over one-second windows.
type fpsCounter struct {
	prev        time.Time
	windowStart time.Time
	frames      int
}

// tick records a frame at now. It returns the time since the previous frame
// and, once per elapsed second, the frame rate over that second.
func (c *fpsCounter) tick(now time.Time) (delta time.Duration, fps float64, report bool) {
	if c.prev.IsZero() {
		c.prev = now
		c.windowStart = now
	}
	delta = now.Sub(c.prev)
	c.prev = now
	c.frames++

	elapsed := now.Sub(c.windowStart)
	if elapsed >= time.Second {
		fps = float64(c.frames) / elapsed.Seconds()
		c.frames = 0
		c.windowStart = now
		return delta, fps, true
	}
	return delta, 0, false
}
