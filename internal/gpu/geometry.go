//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// cubeVertexStride is the byte stride of one cube vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
const cubeVertexStride = 24

// cubeVertex is one corner of one cube face.
type cubeVertex struct {
	Position [3]float32
	Color    [3]float32
}

var (
	colorRed       = [3]float32{1, 0, 0}
	colorDarkRed   = [3]float32{0.25, 0, 0}
	colorGreen     = [3]float32{0, 1, 0}
	colorDarkGreen = [3]float32{0, 0.25, 0}
	colorBlue      = [3]float32{0, 0, 1}
	colorDarkBlue  = [3]float32{0, 0, 0.25}
)

// Cube corners, named by x (Left/Right), y (Bottom/Top), z (Back/Front).
var (
	cornerLBB = [3]float32{-0.5, -0.5, -0.5}
	cornerLBF = [3]float32{-0.5, -0.5, 0.5}
	cornerLTB = [3]float32{-0.5, 0.5, -0.5}
	cornerLTF = [3]float32{-0.5, 0.5, 0.5}
	cornerRBB = [3]float32{0.5, -0.5, -0.5}
	cornerRBF = [3]float32{0.5, -0.5, 0.5}
	cornerRTB = [3]float32{0.5, 0.5, -0.5}
	cornerRTF = [3]float32{0.5, 0.5, 0.5}
)

func cubeSide(color [3]float32, v1, v2, v3, v4, v5, v6 [3]float32) [6]cubeVertex {
	return [6]cubeVertex{
		{v1, color}, {v2, color}, {v3, color},
		{v4, color}, {v5, color}, {v6, color},
	}
}

// cubeVertices holds the 36 cube vertices, two clockwise triangles per face.
// Faces are not shared so each one keeps its own color.
var cubeVertices = func() [36]cubeVertex {
	sides := [6][6]cubeVertex{
		cubeSide(colorDarkRed, cornerLTB, cornerLBF, cornerLBB, cornerLTB, cornerLTF, cornerLBF),   // -X
		cubeSide(colorRed, cornerRTB, cornerRBB, cornerRBF, cornerRTB, cornerRBF, cornerRTF),       // +X
		cubeSide(colorDarkGreen, cornerLBB, cornerLBF, cornerRBF, cornerLBB, cornerRBF, cornerRBB), // -Y
		cubeSide(colorGreen, cornerLTB, cornerRTB, cornerRTF, cornerLTB, cornerRTF, cornerLTF),     // +Y
		cubeSide(colorDarkBlue, cornerLBB, cornerRBB, cornerRTB, cornerLBB, cornerRTB, cornerLTB),  // -Z
		cubeSide(colorBlue, cornerLBF, cornerLTF, cornerRTF, cornerLBF, cornerRTF, cornerRBF),      // +Z
	}
	var out [36]cubeVertex
	for i, side := range sides {
		copy(out[i*6:], side[:])
	}
	return out
}()

// cubeIndexCount is the number of indices drawn per cube.
const cubeIndexCount = 36

// cubeIndices is a direct triangle list over cubeVertices.
var cubeIndices = func() [cubeIndexCount]uint16 {
	var out [cubeIndexCount]uint16
	for i := range out {
		out[i] = uint16(i)
	}
	return out
}()

// cubeVertexBytes serializes cubeVertices in little-endian order.
func cubeVertexBytes() []byte {
	buf := make([]byte, len(cubeVertices)*cubeVertexStride)
	for i, v := range cubeVertices {
		off := i * cubeVertexStride
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(buf[off+j*4:], math.Float32bits(v.Position[j]))
			binary.LittleEndian.PutUint32(buf[off+12+j*4:], math.Float32bits(v.Color[j]))
		}
	}
	return buf
}

// cubeIndexBytes serializes cubeIndices, padded to a multiple of 4 bytes
// as WriteBuffer requires.
func cubeIndexBytes() []byte {
	size := len(cubeIndices) * 2
	buf := make([]byte, (size+3)&^3)
	for i, idx := range cubeIndices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// cubeVertexLayout describes cubeVertices to the pipeline.
func cubeVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: cubeVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}
