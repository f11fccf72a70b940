// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the platform glue around prim: a GPU device, a
// surface to draw into, and a frame loop that encodes primitives every frame.
//
// # Devices
//
// A Device either opens its own HAL backend (Open, OpenNoop) or borrows the
// device of a host application through a gpucontext.DeviceProvider
// (FromProvider). Borrowed devices are never destroyed by Close.
//
// # Surfaces
//
// Surface is the minimal contract the loop needs: a texture view to render
// into each frame and a Present call afterwards. OffscreenSurface implements
// it on a BGRA8 texture and can read the last frame back into an image.
//
// # Usage
//
//	dev, err := render.Open(render.BackendVulkan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	surface, err := render.NewOffscreenSurface(dev, 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer surface.Destroy()
//
//	quad, _ := prim.NewQuad(dev.HalDevice(), dev.HalQueue())
//	defer quad.Destroy()
//
//	loop := render.NewLoop(dev, render.WithMaxFrames(60))
//	if err := loop.Run(ctx, surface, []*prim.Primitive{quad}); err != nil {
//	    log.Fatal(err)
//	}
//	img, _ := surface.ReadPixels()
package render
