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

// initialModelSlots is the model uniform capacity of a new uniform set. The
// buffer doubles when a frame has more cubes.
const initialModelSlots = 16

// cubeResources holds every GPU object the renderer creates for a device.
type cubeResources struct {
	device hal.Device
	queue  hal.Queue

	shaders    *cubeShaders
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	vertexBuf hal.Buffer
	indexBuf  hal.Buffer

	viewStride  uint64
	modelStride uint64

	// free holds uniform sets no submission reads. pending holds submitted
	// frames in submission order until the queue reports them complete.
	free        []*frameUniforms
	pending     []pendingFrame
	uniformSets int

	pipelines *pipelineCache
}

// initResources creates the renderer objects on device. The adapter is
// checked for layered rendering before anything is created. On error every
// object created so far is destroyed.
func initResources(device hal.Device, queue hal.Queue, adapter *hal.ExposedAdapter, opts options) (*cubeResources, error) {
	if err := checkLayeredRendering(adapter); err != nil {
		return nil, err
	}

	alignment := adapter.Capabilities.Limits.MinUniformBufferOffsetAlignment
	r := &cubeResources{
		device:      device,
		queue:       queue,
		viewStride:  uniformStride(viewUniformSize, alignment),
		modelStride: uniformStride(modelUniformSize, alignment),
	}
	if err := r.init(opts); err != nil {
		r.destroy()
		return nil, err
	}

	slogger().Debug("cube resources created",
		"viewStride", r.viewStride, "modelStride", r.modelStride,
		"modelSlots", initialModelSlots, "pipelines", r.pipelines.len())
	return r, nil
}

func (r *cubeResources) init(opts options) error {
	var err error
	r.shaders, err = createCubeShaders(r.device, opts.shaderSource, opts.assetDir)
	if err != nil {
		return err
	}

	r.bindLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "cube_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   viewUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   modelUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create cube bind group layout: %w", err)
	}

	r.pipeLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "cube_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create cube pipeline layout: %w", err)
	}

	uniforms, err := r.newFrameUniforms(initialModelSlots)
	if err != nil {
		return err
	}
	r.free = append(r.free, uniforms)

	vertices := cubeVertexBytes()
	r.vertexBuf, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_vertices",
		Size:  uint64(len(vertices)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create cube vertex buffer: %w", err)
	}
	if err := r.queue.WriteBuffer(r.vertexBuf, 0, vertices); err != nil {
		return fmt.Errorf("upload cube vertices: %w", err)
	}

	indices := cubeIndexBytes()
	r.indexBuf, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_indices",
		Size:  uint64(len(indices)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create cube index buffer: %w", err)
	}
	if err := r.queue.WriteBuffer(r.indexBuf, 0, indices); err != nil {
		return fmt.Errorf("upload cube indices: %w", err)
	}

	r.pipelines = newPipelineCache(r.device, r.buildPipeline)
	for _, reversed := range []bool{false, true} {
		key := pipelineKey{color: xrcube.DefaultColorFormat, depth: xrcube.DefaultDepthFormat, compare: depthCompare(reversed)}
		if _, err := r.pipelines.get(key); err != nil {
			return err
		}
	}
	return nil
}

// createModelBuffer allocates room for slots model uniforms.
func (r *cubeResources) createModelBuffer(slots int) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_model_uniforms",
		Size:  r.modelStride * uint64(slots),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create model uniform buffer (%d slots): %w", slots, err)
	}
	return buf, nil
}

// createBindGroup binds one slot of each uniform buffer. Draws select the
// slot with dynamic offsets.
func (r *cubeResources) createBindGroup(viewBuf, modelBuf hal.Buffer) (hal.BindGroup, error) {
	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "cube_bind_group",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: viewBuf.NativeHandle(),
				Offset: 0,
				Size:   viewUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: modelBuf.NativeHandle(),
				Offset: 0,
				Size:   modelUniformSize,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create cube bind group: %w", err)
	}
	return bg, nil
}

// buildPipeline creates the cube pipeline for key.
func (r *cubeResources) buildPipeline(key pipelineKey) (hal.RenderPipeline, error) {
	stencil := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "cube_pipeline_" + key.compare.String(),
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shaders.vertex,
			EntryPoint: r.shaders.vertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{cubeVertexLayout()},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeBack,
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            key.depth,
			DepthWriteEnabled: true,
			DepthCompare:      key.compare,
			StencilFront:      stencil,
			StencilBack:       stencil,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     r.shaders.fragment,
			EntryPoint: r.shaders.fragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    key.color,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
}

// destroy releases resources in reverse creation order. Nil fields are
// skipped, so it is safe on a partially built value. Pending frames are
// released too; the caller has waited for the device to go idle.
func (r *cubeResources) destroy() {
	if r == nil || r.device == nil {
		return
	}
	if r.pipelines != nil {
		r.pipelines.destroy()
		r.pipelines = nil
	}
	r.drain()
	for _, u := range r.free {
		r.destroyUniforms(u)
	}
	r.free = nil
	for _, b := range []*hal.Buffer{&r.indexBuf, &r.vertexBuf} {
		if *b != nil {
			r.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shaders != nil {
		r.shaders.destroy(r.device)
		r.shaders = nil
	}
}
