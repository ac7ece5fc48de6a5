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

// requiredDynamicUniforms is the number of dynamic-offset uniform bindings
// the cube pipeline layout uses.
const requiredDynamicUniforms = 2

// checkLayeredRendering verifies the adapter can render each view into its
// own array slice with the instance index selecting the view. It runs before
// any renderer object is created.
func checkLayeredRendering(adapter *hal.ExposedAdapter) error {
	if adapter == nil || adapter.Adapter == nil {
		return fmt.Errorf("%w: no adapter capabilities", xrcube.ErrLayeredRenderingUnsupported)
	}
	limits := adapter.Capabilities.Limits
	if limits.MaxTextureArrayLayers < xrcube.MaxViews {
		return fmt.Errorf("%w: max texture array layers %d < %d",
			xrcube.ErrLayeredRenderingUnsupported, limits.MaxTextureArrayLayers, xrcube.MaxViews)
	}
	if limits.MaxDynamicUniformBuffersPerPipelineLayout < requiredDynamicUniforms {
		return fmt.Errorf("%w: max dynamic uniform buffers %d < %d",
			xrcube.ErrLayeredRenderingUnsupported, limits.MaxDynamicUniformBuffersPerPipelineLayout, requiredDynamicUniforms)
	}
	if a := limits.MinUniformBufferOffsetAlignment; a != 0 && a&(a-1) != 0 {
		return fmt.Errorf("%w: uniform offset alignment %d is not a power of two",
			xrcube.ErrLayeredRenderingUnsupported, a)
	}
	for _, f := range []gputypes.TextureFormat{xrcube.DefaultColorFormat, xrcube.DefaultDepthFormat} {
		if !formatRenderable(adapter.Adapter, f) {
			return fmt.Errorf("%w: %s is not renderable", xrcube.ErrLayeredRenderingUnsupported, f)
		}
	}
	return nil
}

// formatRenderable reports whether f can be a render attachment.
func formatRenderable(adapter hal.Adapter, f gputypes.TextureFormat) bool {
	caps := adapter.TextureFormatCapabilities(f)
	return caps.Flags&hal.TextureFormatCapabilityRenderAttachment != 0
}
