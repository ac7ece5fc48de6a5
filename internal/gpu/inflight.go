//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// frameUniforms is one set of per-frame uniform buffers and the bind group
// over them. A set is written only while no submission can read it.
type frameUniforms struct {
	viewBuf    hal.Buffer
	modelBuf   hal.Buffer
	modelSlots int
	bindGroup  hal.BindGroup
}

// pendingFrame is everything a submitted frame keeps alive until the GPU
// has finished it.
type pendingFrame struct {
	submission uint64
	cmdBuf     hal.CommandBuffer
	views      []hal.TextureView
	uniforms   *frameUniforms
}

// modelSlotsFor returns the capacity for n cubes, doubling from have.
func modelSlotsFor(have, n int) int {
	slots := max(have, initialModelSlots)
	for slots < n {
		slots *= 2
	}
	return slots
}

// newFrameUniforms creates a uniform set with room for slots cubes.
func (r *cubeResources) newFrameUniforms(slots int) (*frameUniforms, error) {
	viewBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_view_uniforms",
		Size:  r.viewStride * maxViewSlots,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create view uniform buffer: %w", err)
	}
	u := &frameUniforms{viewBuf: viewBuf}
	if u.modelBuf, err = r.createModelBuffer(slots); err != nil {
		r.destroyUniforms(u)
		return nil, err
	}
	u.modelSlots = slots
	if u.bindGroup, err = r.createBindGroup(u.viewBuf, u.modelBuf); err != nil {
		r.destroyUniforms(u)
		return nil, err
	}
	r.uniformSets++
	return u, nil
}

// acquireUniforms returns a uniform set no submission is using, sized for
// cubes. Completed frames are reclaimed first; a new set is created when
// every set is still in flight.
func (r *cubeResources) acquireUniforms(cubes int) (*frameUniforms, error) {
	r.reclaim()
	if n := len(r.free); n > 0 {
		u := r.free[n-1]
		r.free = r.free[:n-1]
		if err := r.ensureModelSlots(u, cubes); err != nil {
			r.free = append(r.free, u)
			return nil, err
		}
		return u, nil
	}
	u, err := r.newFrameUniforms(modelSlotsFor(0, cubes))
	if err != nil {
		return nil, err
	}
	slogger().Debug("frame uniform set created", "sets", r.uniformSets, "inFlight", len(r.pending))
	return u, nil
}

// ensureModelSlots grows the model buffer of u to hold at least n cubes and
// rebuilds its bind group. u must not be in flight, so the old buffer and
// group are destroyed at once.
func (r *cubeResources) ensureModelSlots(u *frameUniforms, n int) error {
	if n <= u.modelSlots {
		return nil
	}
	slots := modelSlotsFor(u.modelSlots, n)
	buf, err := r.createModelBuffer(slots)
	if err != nil {
		return err
	}
	group, err := r.createBindGroup(u.viewBuf, buf)
	if err != nil {
		r.device.DestroyBuffer(buf)
		return err
	}
	if u.bindGroup != nil {
		r.device.DestroyBindGroup(u.bindGroup)
	}
	if u.modelBuf != nil {
		r.device.DestroyBuffer(u.modelBuf)
	}
	slogger().Debug("model uniform buffer grown", "from", u.modelSlots, "to", slots)
	u.modelBuf, u.bindGroup, u.modelSlots = buf, group, slots
	return nil
}

// retire parks a submitted frame until its submission completes.
func (r *cubeResources) retire(f pendingFrame) {
	r.pending = append(r.pending, f)
}

// reclaim releases every pending frame whose submission the queue reports
// complete. Submissions complete in order.
func (r *cubeResources) reclaim() {
	if len(r.pending) == 0 {
		return
	}
	done := r.queue.PollCompleted()
	n := 0
	for _, f := range r.pending {
		if f.submission > done {
			break
		}
		r.releaseFrame(f)
		n++
	}
	r.pending = slices.Delete(r.pending, 0, n)
}

// releaseFrame frees the command buffer and slice views of f and returns
// its uniform set to the free list. The GPU must be done with f, or f was
// never submitted.
func (r *cubeResources) releaseFrame(f pendingFrame) {
	if f.cmdBuf != nil {
		r.device.FreeCommandBuffer(f.cmdBuf)
	}
	for _, v := range f.views {
		r.device.DestroyTextureView(v)
	}
	if f.uniforms != nil {
		r.free = append(r.free, f.uniforms)
	}
}

// drain releases every pending frame. The caller has waited for the device
// to go idle.
func (r *cubeResources) drain() {
	for _, f := range r.pending {
		r.releaseFrame(f)
	}
	r.pending = nil
}

func (r *cubeResources) destroyUniforms(u *frameUniforms) {
	if u.bindGroup != nil {
		r.device.DestroyBindGroup(u.bindGroup)
		u.bindGroup = nil
	}
	for _, b := range []*hal.Buffer{&u.modelBuf, &u.viewBuf} {
		if *b != nil {
			r.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	u.modelSlots = 0
}
