//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xrcube"
)

// StereoCubeRenderer draws instanced cubes into stereo array targets on a
// wgpu HAL device.
//
// The renderer is Uninitialized until InitializeDevice or AttachDevice
// succeeds. Close returns it to Uninitialized and may be followed by another
// InitializeDevice.
type StereoCubeRenderer struct {
	mu   sync.Mutex
	opts options

	// instance and ownsDevice are set when InitializeDevice opened the
	// device. Attached devices belong to the host.
	instance   hal.Instance
	ownsDevice bool

	device  hal.Device
	queue   hal.Queue
	adapter *hal.ExposedAdapter
	handle  *deviceHandle
	res     *cubeResources

	// renderable caches adapter format capability lookups.
	renderable map[gputypes.TextureFormat]bool

	stats xrcube.FrameStats
}

var (
	_ xrcube.Renderer          = (*StereoCubeRenderer)(nil)
	_ xrcube.DeviceAttacher    = (*StereoCubeRenderer)(nil)
	_ xrcube.StatsReporter     = (*StereoCubeRenderer)(nil)
	_ xrcube.SwapchainProvider = (*StereoCubeRenderer)(nil)
)

// NewStereoCubeRenderer returns an Uninitialized renderer.
func NewStereoCubeRenderer(opts ...Option) *StereoCubeRenderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &StereoCubeRenderer{opts: o}
}

// SetLogger sets the logger for the GPU backend. Called by
// xrcube.SetLogger.
func (r *StereoCubeRenderer) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SupportedColorFormats returns xrcube.SupportedColorFormats.
func (r *StereoCubeRenderer) SupportedColorFormats() []gputypes.TextureFormat {
	return xrcube.SupportedColorFormats()
}

// SupportedDepthFormats returns xrcube.SupportedDepthFormats.
func (r *StereoCubeRenderer) SupportedDepthFormats() []gputypes.TextureFormat {
	return xrcube.SupportedDepthFormats()
}

// InitializeDevice opens a device on the best adapter matching id at the
// first level of levels the adapter satisfies, then creates the renderer
// resources. A Ready renderer is closed first.
func (r *StereoCubeRenderer) InitializeDevice(id xrcube.AdapterIdentity, levels []xrcube.FeatureLevel) (xrcube.DeviceHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()

	backend, err := r.opts.backend()
	if err != nil {
		return nil, err
	}
	instance, adapters, err := enumerateAdapters(backend)
	if err != nil {
		return nil, err
	}

	adapter, err := selectAdapter(adapters, id)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	level, err := chooseFeatureLevel(adapter.Capabilities.Limits, levels)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	// Refuse before opening a device that could never be used.
	if err := checkLayeredRendering(adapter); err != nil {
		instance.Destroy()
		return nil, err
	}

	open, err := adapter.Adapter.Open(0, level.Limits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device on %q: %w", adapter.Info.Name, err)
	}

	res, err := initResources(open.Device, open.Queue, adapter, r.opts)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, err
	}

	r.instance = instance
	r.ownsDevice = true
	r.bind(open.Device, open.Queue, adapter, level, res)

	slogger().Info("xrcube device ready",
		"adapter", adapter.Info.Name,
		"backend", backend.Variant().String(),
		"level", level.String(),
		"shaders", r.opts.shaderSource.String())
	return r.handle, nil
}

// halProvider is the shape of a host device provider. HalAdapter is
// optional on the provider but required for the capability check.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

type halAdapterProvider interface {
	HalAdapter() any
}

type featureLevelProvider interface {
	FeatureLevel() xrcube.FeatureLevel
}

// AttachDevice initializes the renderer on a device owned by the host. The
// provider must expose HalDevice and HalQueue returning hal.Device and
// hal.Queue, and HalAdapter returning the *hal.ExposedAdapter the device was
// opened on. Close leaves the host device alive.
func (r *StereoCubeRenderer) AttachDevice(provider any) error {
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("device provider %T does not expose HAL device and queue", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("device provider %T: HalDevice is not a hal.Device", provider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("device provider %T: HalQueue is not a hal.Queue", provider)
	}
	var adapter *hal.ExposedAdapter
	if ap, ok := provider.(halAdapterProvider); ok {
		adapter, _ = ap.HalAdapter().(*hal.ExposedAdapter)
	}
	level := xrcube.FeatureLevelCore
	if lp, ok := provider.(featureLevelProvider); ok {
		level = lp.FeatureLevel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()

	res, err := initResources(device, queue, adapter, r.opts)
	if err != nil {
		return err
	}
	r.ownsDevice = false
	r.bind(device, queue, adapter, level, res)

	slogger().Info("xrcube attached to host device", "adapter", adapter.Info.Name, "level", level.String())
	return nil
}

func (r *StereoCubeRenderer) bind(device hal.Device, queue hal.Queue, adapter *hal.ExposedAdapter, level xrcube.FeatureLevel, res *cubeResources) {
	r.device = device
	r.queue = queue
	r.adapter = adapter
	r.res = res
	r.renderable = make(map[gputypes.TextureFormat]bool)
	r.stats = xrcube.FrameStats{}
	r.handle = &deviceHandle{device: device, queue: queue, adapter: adapter, level: level}
}

// Ready reports whether RenderView can be called.
func (r *StereoCubeRenderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.res != nil
}

// Device returns the handle of the bound device, or nil when Uninitialized.
func (r *StereoCubeRenderer) Device() xrcube.DeviceHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle == nil {
		return nil
	}
	return r.handle
}

// LastFrameStats returns the stats of the last successful RenderView.
func (r *StereoCubeRenderer) LastFrameStats() xrcube.FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// PipelineCacheStats returns pipeline cache hits, misses and size.
func (r *StereoCubeRenderer) PipelineCacheStats() (hits, misses uint64, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.res == nil {
		return 0, 0, 0
	}
	hits, misses = r.res.pipelines.stats()
	return hits, misses, r.res.pipelines.len()
}

// Close releases every renderer-owned GPU object. A device opened by
// InitializeDevice is destroyed, an attached one is left to the host.
func (r *StereoCubeRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *StereoCubeRenderer) closeLocked() {
	if r.device == nil {
		return
	}
	if err := r.device.WaitIdle(); err != nil && !errors.Is(err, hal.ErrDeviceLost) {
		slogger().Warn("wait idle before close", "err", err)
	}
	r.res.destroy()
	if r.ownsDevice {
		r.device.Destroy()
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.instance = nil
	r.ownsDevice = false
	r.device = nil
	r.queue = nil
	r.adapter = nil
	r.handle = nil
	r.res = nil
	r.renderable = nil
	slogger().Debug("xrcube renderer closed")
}
