// Package xrcube renders colored unit cubes into a stereo render target for
// XR display loops.
//
// # Overview
//
// A frame is a list of cubes seen from one or two viewpoints. Each viewpoint
// owns one array slice of the color and depth targets. Per-view projection
// matrices and per-cube model transforms are packed into uniform buffers,
// and every cube is drawn with a single instanced draw whose instance index
// selects the view.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/xrcube"
//	    _ "github.com/gogpu/xrcube/gpu" // register the wgpu backend
//	)
//
//	r, err := xrcube.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	if _, err := r.InitializeDevice(xrcube.AdapterIdentity{}, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = r.RenderView(&xrcube.ViewRequest{
//	    Viewport:    xrcube.Rect2Di{Extent: xrcube.Extent2Di{Width: 1440, Height: 936}},
//	    ClearColor:  [4]float32{0.18, 0.18, 0.18, 1},
//	    Views:       views,
//	    ColorFormat: gputypes.TextureFormatRGBA8Unorm,
//	    ColorTarget: colorArray,
//	    DepthFormat: gputypes.TextureFormatDepth32Float,
//	    DepthTarget: depthArray,
//	    Cubes:       cubes,
//	})
//
// # Depth
//
// A view whose near plane is farther than its far plane selects reversed-Z:
// the depth target is cleared to 0 and fragments pass when their depth is
// greater than the stored value. Otherwise depth clears to 1 and the test is
// less-than. The first view decides for the whole frame.
//
// # Backends
//
// Backends register themselves with [RegisterBackend]. The wgpu HAL backend
// lives in the gpu sub-package; building with -tags nogpu links none.
//
// # Logging
//
// xrcube is silent by default. Call [SetLogger] to receive diagnostics.
package xrcube
