package xrcube

import "github.com/gogpu/gputypes"

// supportedColorFormats lists 8-bit RGBA and BGRA in linear and sRGB
// encodings, most preferred first.
var supportedColorFormats = [...]gputypes.TextureFormat{
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8UnormSrgb,
}

// supportedDepthFormats lists 32-bit float, 16-bit and 24-bit depth, and
// 32-bit float depth with stencil, most preferred first.
var supportedDepthFormats = [...]gputypes.TextureFormat{
	gputypes.TextureFormatDepth32Float,
	gputypes.TextureFormatDepth16Unorm,
	gputypes.TextureFormatDepth24PlusStencil8,
	gputypes.TextureFormatDepth32FloatStencil8,
}

// SupportedColorFormats returns the color formats the cube renderer accepts,
// in order of preference. The caller owns the returned slice.
func SupportedColorFormats() []gputypes.TextureFormat {
	out := make([]gputypes.TextureFormat, len(supportedColorFormats))
	copy(out, supportedColorFormats[:])
	return out
}

// SupportedDepthFormats returns the depth formats the cube renderer accepts,
// in order of preference. The caller owns the returned slice.
func SupportedDepthFormats() []gputypes.TextureFormat {
	out := make([]gputypes.TextureFormat, len(supportedDepthFormats))
	copy(out, supportedDepthFormats[:])
	return out
}

// IsSupportedColorFormat reports whether f is in SupportedColorFormats.
func IsSupportedColorFormat(f gputypes.TextureFormat) bool {
	for _, c := range supportedColorFormats {
		if c == f {
			return true
		}
	}
	return false
}

// IsSupportedDepthFormat reports whether f is in SupportedDepthFormats.
func IsSupportedDepthFormat(f gputypes.TextureFormat) bool {
	for _, d := range supportedDepthFormats {
		if d == f {
			return true
		}
	}
	return false
}

// DefaultColorFormat is the first entry of SupportedColorFormats.
const DefaultColorFormat = gputypes.TextureFormatRGBA8Unorm

// DefaultDepthFormat is the first entry of SupportedDepthFormats.
const DefaultDepthFormat = gputypes.TextureFormatDepth32Float
