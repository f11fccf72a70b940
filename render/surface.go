// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/wgpu/hal"
)

// ErrSurfaceUnavailable is returned when a surface cannot provide a frame.
// The loop stops on it; callers may recreate the surface and restart.
var ErrSurfaceUnavailable = errors.New("render: surface unavailable")

// Surface is a render destination the loop draws into once per frame.
//
// Acquire returns the texture view for the next frame, Present hands the
// finished frame back. Views must use prim.TargetFormat.
type Surface interface {
	Acquire() (hal.TextureView, error)
	Present() error
	Size() (width, height uint32)
	Destroy()
}
