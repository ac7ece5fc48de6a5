package xrcube

import (
	"image"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Renderer draws cubes into stereo array targets.
//
// A Renderer starts Uninitialized. InitializeDevice moves it to Ready, and
// RenderView is only valid in Ready. Close releases every GPU object the
// renderer created and returns it to Uninitialized.
//
// Renderers are not safe for concurrent RenderView calls.
type Renderer interface {
	// InitializeDevice opens a device on the adapter matching adapter at the
	// first satisfiable level of levels, then creates all renderer
	// resources. A nil levels slice means DefaultFeatureLevels.
	InitializeDevice(adapter AdapterIdentity, levels []FeatureLevel) (DeviceHandle, error)

	// SupportedColorFormats returns the accepted color formats in order of
	// preference.
	SupportedColorFormats() []gputypes.TextureFormat

	// SupportedDepthFormats returns the accepted depth formats in order of
	// preference.
	SupportedDepthFormats() []gputypes.TextureFormat

	// RenderView records and submits one frame.
	RenderView(req *ViewRequest) error

	// Close releases renderer-owned GPU objects. Safe to call more than once.
	Close()
}

// AdapterIdentity selects a physical adapter. Zero fields match anything.
type AdapterIdentity struct {
	VendorID uint32
	DeviceID uint32

	// Name matches case-insensitively as a substring of the adapter name.
	Name string
}

// IsZero reports whether id matches every adapter.
func (id AdapterIdentity) IsZero() bool {
	return id.VendorID == 0 && id.DeviceID == 0 && id.Name == ""
}

// Matches reports whether an adapter with the given PCI ids and name is
// selected by id.
func (id AdapterIdentity) Matches(vendorID, deviceID uint32, name string) bool {
	if id.VendorID != 0 && id.VendorID != vendorID {
		return false
	}
	if id.DeviceID != 0 && id.DeviceID != deviceID {
		return false
	}
	if id.Name != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(id.Name)) {
		return false
	}
	return true
}

// FeatureLevel is a capability tier a device may be opened at.
type FeatureLevel uint8

const (
	// FeatureLevelCore requests the full WebGPU default limits.
	FeatureLevelCore FeatureLevel = iota

	// FeatureLevelDownlevel requests the reduced limits of older hardware.
	FeatureLevelDownlevel
)

// String returns the level name.
func (l FeatureLevel) String() string {
	switch l {
	case FeatureLevelCore:
		return "core"
	case FeatureLevelDownlevel:
		return "downlevel"
	default:
		return "unknown"
	}
}

// Limits returns the limits a device opened at l is guaranteed.
func (l FeatureLevel) Limits() gputypes.Limits {
	if l == FeatureLevelDownlevel {
		return gputypes.DownlevelLimits()
	}
	return gputypes.DefaultLimits()
}

// DefaultFeatureLevels is used when InitializeDevice gets no levels.
func DefaultFeatureLevels() []FeatureLevel {
	return []FeatureLevel{FeatureLevelCore, FeatureLevelDownlevel}
}

// TextureHandle is a backend texture owned by the host. The wgpu backend
// expects a hal.Texture created as a 2D array with at least as many layers
// as views.
type TextureHandle any

// DeviceHandle is the device a renderer draws with. Hosts use it to create
// swapchain textures on the same device.
type DeviceHandle interface {
	gpucontext.DeviceProvider

	// FeatureLevel reports the level the device was opened at.
	FeatureLevel() FeatureLevel
}

// ViewRequest is one frame of RenderView input.
type ViewRequest struct {
	// Viewport is applied to every view slice.
	Viewport Rect2Di

	// ClearColor is RGBA in [0, 1]. Every view slice is cleared in full.
	ClearColor [4]float32

	// Views holds one entry per array slice, at most MaxViews. Views[0]
	// decides the depth convention. Every view must satisfy ProjectionValid.
	Views []ViewProjection

	ColorFormat gputypes.TextureFormat
	ColorTarget TextureHandle
	DepthFormat gputypes.TextureFormat
	DepthTarget TextureHandle

	// Cubes are drawn in order.
	Cubes []Cube
}

// FrameStats describes the commands recorded for the last frame.
type FrameStats struct {
	Views           int
	Passes          int
	Draws           int
	InstanceCount   uint32
	ReversedZ       bool
	DepthClearValue float32
}

// StatsReporter is implemented by renderers that record FrameStats.
type StatsReporter interface {
	LastFrameStats() FrameStats
}

// DeviceAttacher is implemented by renderers that can draw with a device
// owned by the host instead of opening their own.
//
// The provider must expose HalDevice() any, HalQueue() any and
// HalAdapter() any, the last returning the exposed adapter whose
// capabilities are checked.
type DeviceAttacher interface {
	AttachDevice(provider any) error
}

// SwapchainDesc describes an offscreen stereo swapchain image.
type SwapchainDesc struct {
	Width, Height int
	Layers        int
	ColorFormat   gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
}

// Swapchain is an offscreen color and depth array pair for hosts without an
// XR runtime.
type Swapchain interface {
	ColorTarget() TextureHandle
	DepthTarget() TextureHandle
	Desc() SwapchainDesc

	// ReadLayer copies one color slice back to the CPU. It waits for the
	// GPU to go idle.
	ReadLayer(layer int) (*image.RGBA, error)

	Release()
}

// SwapchainProvider is implemented by renderers that can allocate offscreen
// swapchains on their device.
type SwapchainProvider interface {
	CreateSwapchain(desc SwapchainDesc) (Swapchain, error)
}
