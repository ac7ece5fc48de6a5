//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu implements the xrcube renderer on the gogpu/wgpu HAL.
//
// This is an internal package. Import github.com/gogpu/xrcube/gpu to
// register it as the "wgpu" backend.
//
// # Architecture Overview
//
//	InitializeDevice / AttachDevice -> initResources -> RenderView (per frame)
//
// Key components:
//
//   - StereoCubeRenderer: device ownership, state machine, frame entry point
//   - cubeResources: shaders, bind group layout, uniform, vertex and index buffers
//   - pipelineCache: render pipelines keyed by target formats and depth compare
//   - offscreenSwapchain: 2D array targets with per-layer CPU readback
//
// # Layered Rendering
//
// WebGPU attachments are single-layer views and the vertex stage cannot pick
// an output layer. RenderView therefore records one render pass per view,
// each on one array slice of the color and depth targets. Every cube is one
// DrawIndexed with an instance per view. The vertex shader selects the
// view-projection matrix by instance index and moves instances that do not
// belong to the pass's slice outside the clip volume.
//
// The view uniform buffer holds one slot per pass, each carrying all view
// matrices and the index of that pass's view. The model uniform buffer holds
// one slot per cube. Both are selected with dynamic offsets, so each frame
// needs exactly two queue writes.
//
// # Depth
//
// A frame whose first view has Near > Far is reversed-Z: depth clears to 0
// and the Greater pipeline is bound. Otherwise depth clears to 1 with Less.
//
// # Shaders
//
// The default WGSL shader is embedded and validated with naga before use.
// ShaderSourceSPIRV compiles it to SPIR-V with naga. ShaderSourcePrecompiled
// loads vs_instancing.bin and fs_instancing.bin from an asset directory.
package gpu
