//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xrcube"
)

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer copies
// require.
const copyPitchAlignment = 256

// offscreenSwapchain is a color and depth 2D array texture pair on the
// renderer's device, one layer per view.
type offscreenSwapchain struct {
	device hal.Device
	queue  hal.Queue
	desc   xrcube.SwapchainDesc
	color  hal.Texture
	depth  hal.Texture
}

var _ xrcube.Swapchain = (*offscreenSwapchain)(nil)

// CreateSwapchain allocates an offscreen stereo swapchain on the bound
// device. Zero formats default to xrcube.DefaultColorFormat and
// xrcube.DefaultDepthFormat, zero layers to xrcube.MaxViews.
func (r *StereoCubeRenderer) CreateSwapchain(desc xrcube.SwapchainDesc) (xrcube.Swapchain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.res == nil {
		return nil, xrcube.ErrNotInitialized
	}

	if desc.Layers == 0 {
		desc.Layers = xrcube.MaxViews
	}
	if desc.ColorFormat == gputypes.TextureFormatUndefined {
		desc.ColorFormat = xrcube.DefaultColorFormat
	}
	if desc.DepthFormat == gputypes.TextureFormatUndefined {
		desc.DepthFormat = xrcube.DefaultDepthFormat
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: swapchain size %dx%d", xrcube.ErrInvalidTarget, desc.Width, desc.Height)
	}
	if desc.Layers < 0 || desc.Layers > xrcube.MaxViews {
		return nil, fmt.Errorf("%w: %d swapchain layers", xrcube.ErrTooManyViews, desc.Layers)
	}
	if !xrcube.IsSupportedColorFormat(desc.ColorFormat) {
		return nil, fmt.Errorf("%w: color %s", xrcube.ErrUnsupportedFormat, desc.ColorFormat)
	}
	if !xrcube.IsSupportedDepthFormat(desc.DepthFormat) {
		return nil, fmt.Errorf("%w: depth %s", xrcube.ErrUnsupportedFormat, desc.DepthFormat)
	}

	size := hal.Extent3D{
		Width:              uint32(desc.Width),
		Height:             uint32(desc.Height),
		DepthOrArrayLayers: uint32(desc.Layers),
	}
	color, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "xrcube_swapchain_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create swapchain color texture: %w", err)
	}
	depth, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "xrcube_swapchain_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		r.device.DestroyTexture(color)
		return nil, fmt.Errorf("create swapchain depth texture: %w", err)
	}

	slogger().Debug("offscreen swapchain created",
		"width", desc.Width, "height", desc.Height, "layers", desc.Layers,
		"color", desc.ColorFormat.String(), "depth", desc.DepthFormat.String())
	return &offscreenSwapchain{
		device: r.device,
		queue:  r.queue,
		desc:   desc,
		color:  color,
		depth:  depth,
	}, nil
}

func (s *offscreenSwapchain) ColorTarget() xrcube.TextureHandle { return s.color }
func (s *offscreenSwapchain) DepthTarget() xrcube.TextureHandle { return s.depth }
func (s *offscreenSwapchain) Desc() xrcube.SwapchainDesc        { return s.desc }

// Release waits for the device to go idle, since submitted frames may
// still target the textures, then destroys both. Safe to call more than once.
func (s *offscreenSwapchain) Release() {
	if s.color == nil && s.depth == nil {
		return
	}
	if err := s.device.WaitIdle(); err != nil && !errors.Is(err, hal.ErrDeviceLost) {
		slogger().Warn("wait idle before swapchain release", "err", err)
	}
	if s.depth != nil {
		s.device.DestroyTexture(s.depth)
		s.depth = nil
	}
	if s.color != nil {
		s.device.DestroyTexture(s.color)
		s.color = nil
	}
}

// ReadLayer copies color slice layer into an RGBA image. It submits a copy
// and waits for the device to go idle.
func (s *offscreenSwapchain) ReadLayer(layer int) (*image.RGBA, error) {
	if s.color == nil {
		return nil, fmt.Errorf("%w: swapchain released", xrcube.ErrInvalidTarget)
	}
	if layer < 0 || layer >= s.desc.Layers {
		return nil, fmt.Errorf("%w: layer %d of %d", xrcube.ErrInvalidTarget, layer, s.desc.Layers)
	}

	w, h := uint32(s.desc.Width), uint32(s.desc.Height)
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "xrcube_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer s.device.DestroyBuffer(staging)

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "xrcube_readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("xrcube_readback"); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	sliceRange := hal.TextureRange{
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		BaseArrayLayer:  uint32(layer),
		ArrayLayerCount: 1,
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.color,
		Range:   sliceRange,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(s.color, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase: hal.ImageCopyTexture{
			Texture: s.color,
			Origin:  hal.Origin3D{Z: uint32(layer)},
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.color,
		Range:   sliceRange,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	if _, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, fmt.Errorf("submit readback: %w", err)
	}
	if err := s.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait for readback: %w", err)
	}

	mapping, err := s.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	defer func() {
		if err := s.device.UnmapBuffer(staging); err != nil {
			slogger().Warn("unmap readback buffer", "err", err)
		}
	}()

	src := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)
	img := image.NewRGBA(image.Rect(0, 0, s.desc.Width, s.desc.Height))
	for y := 0; y < int(h); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+int(bytesPerRow)], src[y*int(alignedBytesPerRow):])
	}
	if isBGRA(s.desc.ColorFormat) {
		swapRedBlue(img.Pix)
	}
	return img, nil
}

func isBGRA(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatBGRA8UnormSrgb
}

// swapRedBlue converts BGRA pixels to RGBA in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
