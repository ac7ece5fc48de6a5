//go:build !nogpu

// Package gpu registers the wgpu HAL renderer backend.
//
// Import this package for its side effect to make xrcube.NewRenderer return
// a renderer that draws through gogpu/wgpu on Vulkan, Metal, DX12 or GL,
// whichever the platform offers first.
//
// Usage:
//
//	import _ "github.com/gogpu/xrcube/gpu" // enable the wgpu backend
//
// Use [New] instead of xrcube.NewRenderer to pass options such as a
// precompiled shader source.
package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xrcube"
	gpuimpl "github.com/gogpu/xrcube/internal/gpu"
)

func init() {
	xrcube.RegisterBackend(xrcube.BackendWGPU, func() xrcube.Renderer {
		return gpuimpl.NewStereoCubeRenderer()
	})
}

// Option configures the wgpu renderer.
type Option = gpuimpl.Option

// ShaderSource selects how the cube shaders reach the device.
type ShaderSource = gpuimpl.ShaderSource

// Shader sources.
const (
	ShaderSourceWGSL        = gpuimpl.ShaderSourceWGSL
	ShaderSourceSPIRV       = gpuimpl.ShaderSourceSPIRV
	ShaderSourcePrecompiled = gpuimpl.ShaderSourcePrecompiled
)

// DefaultAssetDir is where precompiled shaders are looked up.
const DefaultAssetDir = gpuimpl.DefaultAssetDir

// ParseShaderSource maps "wgsl", "spirv" or "precompiled" to a ShaderSource.
func ParseShaderSource(name string) (ShaderSource, error) {
	return gpuimpl.ParseShaderSource(name)
}

// WithShaderSource selects the shader source. Default is WGSL.
func WithShaderSource(s ShaderSource) Option { return gpuimpl.WithShaderSource(s) }

// WithAssetDir sets the precompiled shader directory.
func WithAssetDir(dir string) Option { return gpuimpl.WithAssetDir(dir) }

// WithBackendVariant pins the HAL backend, e.g. gputypes.BackendVulkan.
func WithBackendVariant(v gputypes.Backend) Option { return gpuimpl.WithBackendVariant(v) }

// New returns an Uninitialized wgpu renderer configured by opts. It
// receives the current xrcube logger.
func New(opts ...Option) xrcube.Renderer {
	r := gpuimpl.NewStereoCubeRenderer(opts...)
	r.SetLogger(xrcube.Logger())
	return r
}

// SetDeviceProvider binds r to a device owned by the host. The provider
// must expose HalDevice, HalQueue and HalAdapter, as the DeviceHandle
// returned by InitializeDevice does.
func SetDeviceProvider(r xrcube.Renderer, provider any) error {
	da, ok := r.(xrcube.DeviceAttacher)
	if !ok {
		return fmt.Errorf("%w: renderer %T cannot attach to a host device", xrcube.ErrNoBackend, r)
	}
	return da.AttachDevice(provider)
}

// AdapterReport describes an adapter and whether the renderer can use it.
type AdapterReport = gpuimpl.AdapterReport

// Adapters lists the adapters of the backend opts select without opening a
// device.
func Adapters(opts ...Option) ([]AdapterReport, error) {
	return gpuimpl.ListAdapters(opts...)
}
