package cli

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	// The noop HAL renders nothing but lets the CLI run on headless hosts.
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/xrcube"
	"github.com/gogpu/xrcube/gpu"
)

const backendAuto = "auto"

// backendNames maps --backend values to HAL variants.
var backendNames = map[string]gputypes.Backend{
	"vulkan": gputypes.BackendVulkan,
	"metal":  gputypes.BackendMetal,
	"dx12":   gputypes.BackendDX12,
	"gl":     gputypes.BackendGL,
	"noop":   gputypes.BackendEmpty,
}

// deviceOpts holds the flags shared by commands that open a device.
type deviceOpts struct {
	backend  string // HAL backend name or "auto"
	adapter  string // adapter name substring
	level    string // "core", "downlevel" or empty for both in that order
	shaders  string // shader source: wgsl, spirv or precompiled
	assetDir string // directory of precompiled shaders
}

func (o *deviceOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.backend, "backend", backendAuto, "HAL backend: auto, vulkan, metal, dx12, gl, noop")
	cmd.Flags().StringVar(&o.adapter, "adapter", "", "adapter name substring (default: best adapter)")
	cmd.Flags().StringVar(&o.level, "level", "", "feature level: core or downlevel (default: first satisfiable)")
	cmd.Flags().StringVar(&o.shaders, "shaders", "wgsl", "shader source: wgsl, spirv, precompiled")
	cmd.Flags().StringVar(&o.assetDir, "assets", gpu.DefaultAssetDir, "directory holding vs_instancing.bin and fs_instancing.bin")
}

// gpuOptions converts the flags into renderer options.
func (o *deviceOpts) gpuOptions() ([]gpu.Option, error) {
	src, err := gpu.ParseShaderSource(o.shaders)
	if err != nil {
		return nil, err
	}
	opts := []gpu.Option{gpu.WithShaderSource(src), gpu.WithAssetDir(o.assetDir)}

	if b, ok, err := parseBackend(o.backend); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, gpu.WithBackendVariant(b))
	}
	return opts, nil
}

func (o *deviceOpts) featureLevels() ([]xrcube.FeatureLevel, error) {
	switch strings.ToLower(o.level) {
	case "":
		return nil, nil
	case "core":
		return []xrcube.FeatureLevel{xrcube.FeatureLevelCore}, nil
	case "downlevel":
		return []xrcube.FeatureLevel{xrcube.FeatureLevelDownlevel}, nil
	default:
		return nil, fmt.Errorf("unknown feature level %q (want core or downlevel)", o.level)
	}
}

// open creates a renderer and initializes its device. The caller closes
// the renderer.
func (o *deviceOpts) open(c *CLI) (xrcube.Renderer, xrcube.DeviceHandle, error) {
	opts, err := o.gpuOptions()
	if err != nil {
		return nil, nil, err
	}
	levels, err := o.featureLevels()
	if err != nil {
		return nil, nil, err
	}

	sw := startStopwatch(c.Logger)
	r := gpu.New(opts...)
	handle, err := r.InitializeDevice(xrcube.AdapterIdentity{Name: o.adapter}, levels)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	info := handle.AdapterInfo()
	sw.done("Device ready", "adapter", info.Name, "type", info.Type, "level", handle.FeatureLevel())
	return r, handle, nil
}

// parseBackend resolves a --backend value. ok is false for "auto".
func parseBackend(name string) (b gputypes.Backend, ok bool, err error) {
	name = strings.ToLower(name)
	if name == "" || name == backendAuto {
		return 0, false, nil
	}
	b, ok = backendNames[name]
	if !ok {
		return 0, false, fmt.Errorf("unknown backend %q", name)
	}
	return b, true, nil
}

// parseFormat finds name among formats, ignoring case. An empty name picks
// the first format.
func parseFormat(name string, formats []gputypes.TextureFormat) (gputypes.TextureFormat, error) {
	if name == "" {
		return formats[0], nil
	}
	for _, f := range formats {
		if strings.EqualFold(f.String(), name) {
			return f, nil
		}
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %q", xrcube.ErrUnsupportedFormat, name)
}
