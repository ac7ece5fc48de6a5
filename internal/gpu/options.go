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

// Option configures a StereoCubeRenderer.
//
// Example:
//
//	r := gpu.NewStereoCubeRenderer(
//		gpu.WithShaderSource(gpu.ShaderSourcePrecompiled),
//		gpu.WithAssetDir("Assets"),
//	)
type Option func(*options)

type options struct {
	shaderSource ShaderSource
	assetDir     string

	// variant pins the HAL backend. Zero means hal.SelectBestBackend.
	variant    gputypes.Backend
	hasVariant bool

	// selectBackend overrides backend lookup. Tests use it to force the
	// noop backend.
	selectBackend func() (hal.Backend, error)
}

func defaultOptions() options {
	return options{
		shaderSource: ShaderSourceWGSL,
		assetDir:     DefaultAssetDir,
	}
}

// WithShaderSource selects how the cube shaders are supplied.
// Default is ShaderSourceWGSL.
func WithShaderSource(s ShaderSource) Option {
	return func(o *options) {
		o.shaderSource = s
	}
}

// WithAssetDir sets the directory precompiled shaders are loaded from.
// Default is DefaultAssetDir.
func WithAssetDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.assetDir = dir
		}
	}
}

// WithBackendVariant pins the HAL backend InitializeDevice opens, for
// example gputypes.BackendVulkan. Without it the best available backend is
// used.
func WithBackendVariant(v gputypes.Backend) Option {
	return func(o *options) {
		o.variant = v
		o.hasVariant = true
	}
}

// withBackend injects the backend InitializeDevice uses.
func withBackend(b hal.Backend) Option {
	return func(o *options) {
		o.selectBackend = func() (hal.Backend, error) { return b, nil }
	}
}

// backend resolves the HAL backend the options select.
func (o *options) backend() (hal.Backend, error) {
	switch {
	case o.selectBackend != nil:
		return o.selectBackend()
	case o.hasVariant:
		b, ok := hal.GetBackend(o.variant)
		if !ok {
			return nil, fmt.Errorf("%w: HAL backend %s not linked", xrcube.ErrNoBackend, o.variant)
		}
		return b, nil
	default:
		b, err := hal.SelectBestBackend()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", xrcube.ErrNoBackend, err)
		}
		return b, nil
	}
}
