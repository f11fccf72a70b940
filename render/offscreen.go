// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/prim"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the BytesPerRow alignment WebGPU requires for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// fenceTimeout bounds every GPU wait.
const fenceTimeout = 5 * time.Second

// OffscreenSurface is a Surface backed by a single BGRA8 texture. Every frame
// renders into the same texture; ReadPixels copies it back to the CPU.
type OffscreenSurface struct {
	device hal.Device
	queue  hal.Queue

	width, height uint32

	tex  hal.Texture
	view hal.TextureView

	presented uint64
}

// NewOffscreenSurface creates a width×height render target on d.
func NewOffscreenSurface(d *Device, width, height uint32) (*OffscreenSurface, error) {
	if d == nil || d.HalDevice() == nil {
		return nil, prim.ErrNilDevice
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("render: invalid surface size %dx%d", width, height)
	}

	s := &OffscreenSurface{
		device: d.HalDevice(),
		queue:  d.HalQueue(),
		width:  width,
		height: height,
	}

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        prim.TargetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	s.tex = tex

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "offscreen_color_view",
	})
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("create offscreen view: %w", err)
	}
	s.view = view

	prim.Logger().Debug("render: offscreen surface created", "width", width, "height", height)
	return s, nil
}

// Acquire returns the surface's texture view.
func (s *OffscreenSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, fmt.Errorf("%w: offscreen surface destroyed", ErrSurfaceUnavailable)
	}
	return s.view, nil
}

// Present records that a frame was completed. The texture keeps its
// contents until the next frame clears it.
func (s *OffscreenSurface) Present() error {
	if s.view == nil {
		return fmt.Errorf("%w: offscreen surface destroyed", ErrSurfaceUnavailable)
	}
	s.presented++
	return nil
}

// Size returns the surface dimensions in pixels.
func (s *OffscreenSurface) Size() (width, height uint32) { return s.width, s.height }

// Presented returns the number of frames presented so far.
func (s *OffscreenSurface) Presented() uint64 { return s.presented }

// Destroy releases the texture and its view. Safe to call multiple times.
func (s *OffscreenSurface) Destroy() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
}

// ReadPixels copies the current contents of the surface into a new RGBA
// image. It blocks until the GPU has finished the copy.
func (s *OffscreenSurface) ReadPixels() (*image.RGBA, error) {
	if s.tex == nil {
		return nil, fmt.Errorf("%w: offscreen surface destroyed", ErrSurfaceUnavailable)
	}
	w, h := s.width, s.height

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "offscreen_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer s.device.DestroyBuffer(stagingBuf)

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "offscreen_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("offscreen_readback"); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(s.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(s.device, s.queue, cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := s.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := readback[row*int(alignedBytesPerRow) : row*int(alignedBytesPerRow)+int(bytesPerRow)]
		dst := img.Pix[row*img.Stride : row*img.Stride+int(bytesPerRow)]
		convertBGRAToRGBA(src, dst)
	}
	return img, nil
}

// submitAndWait submits one command buffer and blocks on a fence.
func submitAndWait(device hal.Device, queue hal.Queue, cmdBuf hal.CommandBuffer) error {
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return errors.New("wait for GPU: timed out")
	}
	return nil
}

// convertBGRAToRGBA swaps the red and blue channels of src into dst.
func convertBGRAToRGBA(src, dst []byte) {
	for i := 0; i+3 < len(src) && i+3 < len(dst); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}
