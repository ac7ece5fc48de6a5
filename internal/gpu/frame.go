//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xrcube"
)

// RenderView records one frame into the array slices of the request's
// targets and submits it.
//
// Each view k gets its own render pass on slice k of both targets. Every
// cube is drawn once per pass as an instanced draw with one instance per
// view; the shader keeps only the instance whose index equals k. Slices are
// always cleared in full, also when the viewport is smaller.
//
// RenderView does not wait for the GPU. The command buffer, slice views and
// uniform buffers of a frame are released or reused only after the queue
// reports its submission complete.
func (r *StereoCubeRenderer) RenderView(req *xrcube.ViewRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.res == nil {
		return xrcube.ErrNotInitialized
	}
	if req == nil {
		return fmt.Errorf("%w: nil request", xrcube.ErrNoViews)
	}
	viewCount := len(req.Views)
	if viewCount > xrcube.MaxViews {
		return fmt.Errorf("%w: got %d", xrcube.ErrTooManyViews, viewCount)
	}
	if viewCount == 0 {
		return xrcube.ErrNoViews
	}
	if !xrcube.IsSupportedColorFormat(req.ColorFormat) {
		return fmt.Errorf("%w: color %s", xrcube.ErrUnsupportedFormat, req.ColorFormat)
	}
	if !xrcube.IsSupportedDepthFormat(req.DepthFormat) {
		return fmt.Errorf("%w: depth %s", xrcube.ErrUnsupportedFormat, req.DepthFormat)
	}
	colorTex, ok := req.ColorTarget.(hal.Texture)
	if !ok || colorTex == nil {
		return fmt.Errorf("%w: color target %T", xrcube.ErrInvalidTarget, req.ColorTarget)
	}
	depthTex, ok := req.DepthTarget.(hal.Texture)
	if !ok || depthTex == nil {
		return fmt.Errorf("%w: depth target %T", xrcube.ErrInvalidTarget, req.DepthTarget)
	}
	for _, f := range []gputypes.TextureFormat{req.ColorFormat, req.DepthFormat} {
		if !r.canRender(f) {
			return fmt.Errorf("%w: %s is not renderable on %q", xrcube.ErrUnsupportedFormat, f, r.adapter.Info.Name)
		}
	}

	for i, v := range req.Views {
		if !xrcube.ProjectionValid(v) {
			return fmt.Errorf("%w: view %d has near %g, far %g", xrcube.ErrInvalidView, i, v.NearFar.Near, v.NearFar.Far)
		}
	}

	reversed := xrcube.ReversedZ(req.Views[0].NearFar)
	pipeline, err := r.res.pipelines.get(pipelineKey{
		color:   req.ColorFormat,
		depth:   req.DepthFormat,
		compare: depthCompare(reversed),
	})
	if err != nil {
		return err
	}

	uniforms, err := r.res.acquireUniforms(len(req.Cubes))
	if err != nil {
		return err
	}
	// Everything the frame uses stays alive until its submission completes.
	// Until Submit succeeds nothing has reached the GPU, so a failed frame
	// is released at once.
	frame := pendingFrame{uniforms: uniforms}
	submitted := false
	defer func() {
		if !submitted {
			r.res.releaseFrame(frame)
		}
	}()

	if err := r.uploadUniforms(uniforms, req.Views, req.Cubes); err != nil {
		return err
	}

	params := frameParams{
		viewCount:  viewCount,
		cubeCount:  len(req.Cubes),
		bindGroup:  uniforms.bindGroup,
		clearColor: gputypes.Color{
			R: float64(req.ClearColor[0]),
			G: float64(req.ClearColor[1]),
			B: float64(req.ClearColor[2]),
			A: float64(req.ClearColor[3]),
		},
		clearDepth: xrcube.DepthClearValue(req.Views[0].NearFar),
		viewport:   req.Viewport,
		stencil:    req.DepthFormat.HasStencil(),
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "cube_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cube_frame"); err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("begin encoding: %w", err)
	}

	draws := 0
	for k := 0; k < viewCount; k++ {
		colorView, err := r.sliceView(colorTex, req.ColorFormat, k)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		frame.views = append(frame.views, colorView)
		depthView, err := r.sliceView(depthTex, req.DepthFormat, k)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		frame.views = append(frame.views, depthView)

		draws += r.encodeViewPass(encoder, pipeline, colorView, depthView, k, &params)
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	frame.cmdBuf = cmdBuf

	frame.submission, err = r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit cube frame: %w", err)
	}
	submitted = true
	r.res.retire(frame)
	r.res.reclaim()

	r.stats = xrcube.FrameStats{
		Views:           viewCount,
		Passes:          viewCount,
		Draws:           draws,
		InstanceCount:   uint32(viewCount),
		ReversedZ:       reversed,
		DepthClearValue: params.clearDepth,
	}
	return nil
}

// frameParams is the per-frame state shared by every view pass.
type frameParams struct {
	viewCount  int
	cubeCount  int
	bindGroup  hal.BindGroup
	clearColor gputypes.Color
	clearDepth float32
	viewport   xrcube.Rect2Di
	stencil    bool
}

// uploadUniforms writes the view-projection slots and all model transforms
// into u, one queue write each.
func (r *StereoCubeRenderer) uploadUniforms(u *frameUniforms, views []xrcube.ViewProjection, cubes []xrcube.Cube) error {
	res := r.res
	set := viewProjectionSet(views)
	if err := r.queue.WriteBuffer(u.viewBuf, 0, packViewUniforms(set, len(views), res.viewStride)); err != nil {
		return fmt.Errorf("upload view uniforms: %w", err)
	}
	if len(cubes) == 0 {
		return nil
	}
	if err := r.queue.WriteBuffer(u.modelBuf, 0, packModelUniforms(cubes, res.modelStride)); err != nil {
		return fmt.Errorf("upload model uniforms: %w", err)
	}
	return nil
}

// sliceView creates a single-layer 2D view of array slice k.
func (r *StereoCubeRenderer) sliceView(tex hal.Texture, format gputypes.TextureFormat, k int) (hal.TextureView, error) {
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "cube_slice_view",
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  uint32(k),
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s view of slice %d: %w", format, k, err)
	}
	return view, nil
}

// encodeViewPass records the render pass for view k and returns the number
// of draws issued.
func (r *StereoCubeRenderer) encodeViewPass(
	encoder hal.CommandEncoder,
	pipeline hal.RenderPipeline,
	colorView, depthView hal.TextureView,
	k int,
	frame *frameParams,
) int {
	depth := &hal.RenderPassDepthStencilAttachment{
		View:            depthView,
		DepthLoadOp:     gputypes.LoadOpClear,
		DepthStoreOp:    gputypes.StoreOpStore,
		DepthClearValue: frame.clearDepth,
	}
	if frame.stencil {
		depth.StencilLoadOp = gputypes.LoadOpClear
		depth.StencilStoreOp = gputypes.StoreOpStore
		depth.StencilClearValue = 0
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: fmt.Sprintf("cube_view_%d", k),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: frame.clearColor,
		}},
		DepthStencilAttachment: depth,
	})

	// An empty viewport leaves the pass default of the full attachment.
	if vp := frame.viewport; vp.Extent.Width > 0 && vp.Extent.Height > 0 {
		rp.SetViewport(
			float32(vp.Offset.X), float32(vp.Offset.Y),
			float32(vp.Extent.Width), float32(vp.Extent.Height),
			0, 1)
	}

	res := r.res
	rp.SetPipeline(pipeline)
	rp.SetVertexBuffer(0, res.vertexBuf, 0)
	rp.SetIndexBuffer(res.indexBuf, gputypes.IndexFormatUint16, 0)

	viewOffset := uint32(uint64(k) * res.viewStride)
	for i := 0; i < frame.cubeCount; i++ {
		rp.SetBindGroup(0, frame.bindGroup, []uint32{viewOffset, uint32(uint64(i) * res.modelStride)})
		rp.DrawIndexed(cubeIndexCount, uint32(frame.viewCount), 0, 0, 0)
	}
	rp.End()
	return frame.cubeCount
}

// canRender reports whether the bound adapter can render to f. The answer
// is cached per format.
func (r *StereoCubeRenderer) canRender(f gputypes.TextureFormat) bool {
	if ok, cached := r.renderable[f]; cached {
		return ok
	}
	ok := formatRenderable(r.adapter.Adapter, f)
	r.renderable[f] = ok
	return ok
}
