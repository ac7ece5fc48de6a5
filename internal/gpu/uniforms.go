//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xrcube"
)

// Uniform struct sizes, matching shaders/cube.wgsl.
//
//	ViewUniforms:  view_proj array<mat4x4<f32>, 2> (128) + target_view u32 (4), padded to 144
//	ModelUniforms: transform mat4x4<f32> (64)
const (
	viewUniformSize   = 144
	targetViewOffset  = 128
	modelUniformSize  = 64
	mat4Size          = 64
	defaultUniformGap = 256

	// maxViewSlots is the number of ViewUniforms slots in the view buffer.
	maxViewSlots = xrcube.MaxViews
)

// alignUp rounds n up to a multiple of align. align must be a power of two.
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// uniformStride returns the distance between dynamic-offset slots for a
// struct of size bytes under the device's offset alignment.
func uniformStride(size uint64, alignment uint32) uint64 {
	a := uint64(alignment)
	if a == 0 {
		a = defaultUniformGap
	}
	return alignUp(size, a)
}

// putMat4 writes m in column-major order, which is the WGSL mat4x4 layout.
func putMat4(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// viewProjectionSet builds one matrix per view. Slots past len(views) stay
// zero.
func viewProjectionSet(views []xrcube.ViewProjection) [xrcube.MaxViews]mgl32.Mat4 {
	var set [xrcube.MaxViews]mgl32.Mat4
	for k, v := range views {
		set[k] = xrcube.ViewProjectionMatrix(v)
	}
	return set
}

// packViewUniforms lays out one ViewUniforms slot per target view. Every
// slot carries the whole set, differing only in target_view.
func packViewUniforms(set [xrcube.MaxViews]mgl32.Mat4, viewCount int, stride uint64) []byte {
	buf := make([]byte, stride*uint64(viewCount))
	for k := 0; k < viewCount; k++ {
		slot := buf[uint64(k)*stride:]
		for i, m := range set {
			putMat4(slot[i*mat4Size:], m)
		}
		binary.LittleEndian.PutUint32(slot[targetViewOffset:], uint32(k))
	}
	return buf
}

// packModelUniforms lays out one ModelUniforms slot per cube.
func packModelUniforms(cubes []xrcube.Cube, stride uint64) []byte {
	buf := make([]byte, stride*uint64(len(cubes)))
	for i, c := range cubes {
		putMat4(buf[uint64(i)*stride:], xrcube.ModelTransform(c))
	}
	return buf
}
