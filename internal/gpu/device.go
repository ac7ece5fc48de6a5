//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/xrcube"
)

// selectAdapter returns the adapter matching id. Among several matches a
// discrete GPU wins over an integrated one, which wins over anything else.
func selectAdapter(adapters []hal.ExposedAdapter, id xrcube.AdapterIdentity) (*hal.ExposedAdapter, error) {
	var best *hal.ExposedAdapter
	bestRank := -1
	for i := range adapters {
		info := adapters[i].Info
		if !id.Matches(info.VendorID, info.DeviceID, info.Name) {
			continue
		}
		if r := adapterRank(info.DeviceType); r > bestRank {
			best, bestRank = &adapters[i], r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %+v among %d adapters", xrcube.ErrNoAdapter, id, len(adapters))
	}
	return best, nil
}

func adapterRank(t gputypes.DeviceType) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return 3
	case gputypes.DeviceTypeIntegratedGPU:
		return 2
	case gputypes.DeviceTypeVirtualGPU:
		return 1
	default:
		return 0
	}
}

// limitsSatisfy reports whether an adapter with limits have can open a
// device requesting want, for the limits the cube renderer depends on.
func limitsSatisfy(have, want gputypes.Limits) bool {
	return have.MaxTextureDimension2D >= want.MaxTextureDimension2D &&
		have.MaxTextureArrayLayers >= want.MaxTextureArrayLayers &&
		have.MaxBindGroups >= want.MaxBindGroups &&
		have.MaxDynamicUniformBuffersPerPipelineLayout >= want.MaxDynamicUniformBuffersPerPipelineLayout &&
		have.MaxUniformBufferBindingSize >= want.MaxUniformBufferBindingSize &&
		have.MaxVertexBuffers >= want.MaxVertexBuffers &&
		have.MaxVertexAttributes >= want.MaxVertexAttributes &&
		have.MaxColorAttachments >= want.MaxColorAttachments &&
		(have.MinUniformBufferOffsetAlignment == 0 ||
			have.MinUniformBufferOffsetAlignment <= want.MinUniformBufferOffsetAlignment)
}

// chooseFeatureLevel returns the first level in levels the adapter limits
// satisfy.
func chooseFeatureLevel(have gputypes.Limits, levels []xrcube.FeatureLevel) (xrcube.FeatureLevel, error) {
	if len(levels) == 0 {
		levels = xrcube.DefaultFeatureLevels()
	}
	for _, l := range levels {
		if limitsSatisfy(have, l.Limits()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: tried %v", xrcube.ErrNoFeatureLevel, levels)
}

// enumerateAdapters creates an instance on backend and lists its adapters.
// The caller owns the returned instance.
func enumerateAdapters(backend hal.Backend) (hal.Instance, []hal.ExposedAdapter, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("%w: backend %s has no adapters", xrcube.ErrNoAdapter, backend.Variant())
	}
	return instance, adapters, nil
}

// deviceHandle is the xrcube.DeviceHandle handed to hosts. It also exposes
// the HAL objects through HalDevice, HalQueue and HalAdapter so another
// renderer can attach to the same device.
type deviceHandle struct {
	device  hal.Device
	queue   hal.Queue
	adapter *hal.ExposedAdapter
	level   xrcube.FeatureLevel
}

var _ xrcube.DeviceHandle = (*deviceHandle)(nil)

func (h *deviceHandle) Device() gpucontext.Device { return h.device }
func (h *deviceHandle) Queue() gpucontext.Queue   { return h.queue }
func (h *deviceHandle) Adapter() gpucontext.Adapter {
	if h.adapter == nil {
		return nil
	}
	return h.adapter.Adapter
}

// SurfaceFormat returns the preferred swapchain color format.
func (h *deviceHandle) SurfaceFormat() gputypes.TextureFormat { return xrcube.DefaultColorFormat }

func (h *deviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	if h.adapter == nil {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	return gpucontext.AdapterInfo{
		Name: h.adapter.Info.Name,
		Type: adapterType(h.adapter.Info.DeviceType),
	}
}

func (h *deviceHandle) FeatureLevel() xrcube.FeatureLevel { return h.level }

func (h *deviceHandle) HalDevice() any  { return h.device }
func (h *deviceHandle) HalQueue() any   { return h.queue }
func (h *deviceHandle) HalAdapter() any { return h.adapter }

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
