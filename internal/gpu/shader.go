//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xrcube"
)

//go:embed shaders/cube.wgsl
var cubeShaderSource string

// ShaderSource selects how the cube shader pair reaches the device.
type ShaderSource uint8

const (
	// ShaderSourceWGSL hands the embedded WGSL to the driver.
	ShaderSourceWGSL ShaderSource = iota

	// ShaderSourceSPIRV compiles the embedded WGSL to SPIR-V with naga.
	ShaderSourceSPIRV

	// ShaderSourcePrecompiled loads vs_instancing.bin and fs_instancing.bin
	// (SPIR-V) from the asset directory.
	ShaderSourcePrecompiled
)

// String returns the source name.
func (s ShaderSource) String() string {
	switch s {
	case ShaderSourceWGSL:
		return "wgsl"
	case ShaderSourceSPIRV:
		return "spirv"
	case ShaderSourcePrecompiled:
		return "precompiled"
	default:
		return "unknown"
	}
}

// ParseShaderSource maps a name from String back to a ShaderSource.
func ParseShaderSource(name string) (ShaderSource, error) {
	switch strings.ToLower(name) {
	case "", "wgsl":
		return ShaderSourceWGSL, nil
	case "spirv":
		return ShaderSourceSPIRV, nil
	case "precompiled":
		return ShaderSourcePrecompiled, nil
	default:
		return 0, fmt.Errorf("unknown shader source %q", name)
	}
}

// Precompiled shader file names, relative to the asset directory.
const (
	precompiledVertexFile   = "vs_instancing.bin"
	precompiledFragmentFile = "fs_instancing.bin"

	// DefaultAssetDir is where precompiled shaders are looked up.
	DefaultAssetDir = "Assets"
)

const (
	vertexEntryPoint      = "vs_main"
	fragmentEntryPoint    = "fs_main"
	precompiledEntryPoint = "main"
)

const spirvMagic = 0x07230203

// cubeShaders holds the vertex and fragment modules. For WGSL and SPIR-V
// compiled from WGSL both stages share one module.
type cubeShaders struct {
	vertex        hal.ShaderModule
	fragment      hal.ShaderModule
	vertexEntry   string
	fragmentEntry string
}

func (s *cubeShaders) destroy(device hal.Device) {
	if s.fragment != nil && s.fragment != s.vertex {
		device.DestroyShaderModule(s.fragment)
	}
	if s.vertex != nil {
		device.DestroyShaderModule(s.vertex)
	}
	s.vertex, s.fragment = nil, nil
}

// validateCubeShader parses, lowers and validates WGSL with naga and checks
// that the vertex and fragment entry points exist.
func validateCubeShader(source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: parse: %w", xrcube.ErrShaderInvalid, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w: lower: %w", xrcube.ErrShaderInvalid, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: validate: %w", xrcube.ErrShaderInvalid, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %s", xrcube.ErrShaderInvalid, verrs[0].Message)
	}

	for _, want := range []struct {
		name  string
		stage ir.ShaderStage
	}{
		{vertexEntryPoint, ir.StageVertex},
		{fragmentEntryPoint, ir.StageFragment},
	} {
		if !hasEntryPoint(module, want.name, want.stage) {
			return fmt.Errorf("%w: missing %s entry point", xrcube.ErrShaderInvalid, want.name)
		}
	}
	return nil
}

func hasEntryPoint(module *ir.Module, name string, stage ir.ShaderStage) bool {
	for _, ep := range module.EntryPoints {
		if ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}

// compileToSPIRV compiles WGSL to SPIR-V words.
func compileToSPIRV(source string) ([]uint32, error) {
	code, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %w", xrcube.ErrShaderInvalid, err)
	}
	return spirvWords(code)
}

// spirvWords converts a little-endian SPIR-V binary to words and checks the
// magic number.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V size %d is not a positive multiple of 4", xrcube.ErrShaderInvalid, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: bad SPIR-V magic %#08x", xrcube.ErrShaderInvalid, words[0])
	}
	return words, nil
}

func loadPrecompiled(dir, name string) ([]uint32, error) {
	code, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	words, err := spirvWords(code)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return words, nil
}

// createCubeShaders builds the shader modules for the given source.
func createCubeShaders(device hal.Device, source ShaderSource, assetDir string) (*cubeShaders, error) {
	switch source {
	case ShaderSourceWGSL, ShaderSourceSPIRV:
		if err := validateCubeShader(cubeShaderSource); err != nil {
			return nil, err
		}
		src := hal.ShaderSource{WGSL: cubeShaderSource}
		if source == ShaderSourceSPIRV {
			words, err := compileToSPIRV(cubeShaderSource)
			if err != nil {
				return nil, err
			}
			src = hal.ShaderSource{SPIRV: words}
		}
		module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "cube_shader",
			Source: src,
		})
		if err != nil {
			return nil, fmt.Errorf("create cube shader: %w", err)
		}
		return &cubeShaders{
			vertex:        module,
			fragment:      module,
			vertexEntry:   vertexEntryPoint,
			fragmentEntry: fragmentEntryPoint,
		}, nil

	case ShaderSourcePrecompiled:
		if assetDir == "" {
			assetDir = DefaultAssetDir
		}
		vsCode, err := loadPrecompiled(assetDir, precompiledVertexFile)
		if err != nil {
			return nil, err
		}
		fsCode, err := loadPrecompiled(assetDir, precompiledFragmentFile)
		if err != nil {
			return nil, err
		}
		s := &cubeShaders{vertexEntry: precompiledEntryPoint, fragmentEntry: precompiledEntryPoint}
		s.vertex, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "cube_vs_precompiled",
			Source: hal.ShaderSource{SPIRV: vsCode},
		})
		if err != nil {
			return nil, fmt.Errorf("create precompiled vertex shader: %w", err)
		}
		s.fragment, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "cube_fs_precompiled",
			Source: hal.ShaderSource{SPIRV: fsCode},
		})
		if err != nil {
			s.destroy(device)
			return nil, fmt.Errorf("create precompiled fragment shader: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown shader source %d", source)
	}
}
