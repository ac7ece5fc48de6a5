package xrcube

import "errors"

// Errors returned by renderers. Platform failures are wrapped around these
// or returned wrapped on their own; test with errors.Is.
var (
	// ErrNotInitialized is returned by RenderView before a device is bound.
	ErrNotInitialized = errors.New("xrcube: renderer not initialized")

	// ErrTooManyViews is returned when a frame requests more than MaxViews views.
	ErrTooManyViews = errors.New("xrcube: more than 2 views requested")

	// ErrNoViews is returned when a frame has no view at all.
	ErrNoViews = errors.New("xrcube: at least one view is required")

	// ErrInvalidView is returned for a view whose projection is not finite:
	// equal near and far planes, a zero near plane or an empty field of view.
	ErrInvalidView = errors.New("xrcube: degenerate view frustum")

	// ErrUnsupportedFormat is returned for a color or depth format outside
	// SupportedColorFormats or SupportedDepthFormats.
	ErrUnsupportedFormat = errors.New("xrcube: unsupported texture format")

	// ErrInvalidTarget is returned when a target handle is nil or of a type
	// the backend does not understand.
	ErrInvalidTarget = errors.New("xrcube: invalid render target")

	// ErrNoAdapter is returned when no adapter matches the requested identity.
	ErrNoAdapter = errors.New("xrcube: no matching GPU adapter")

	// ErrNoFeatureLevel is returned when the adapter satisfies none of the
	// candidate feature levels.
	ErrNoFeatureLevel = errors.New("xrcube: no satisfiable feature level")

	// ErrLayeredRenderingUnsupported is returned when the device cannot
	// render to texture array slices selected by instance index.
	ErrLayeredRenderingUnsupported = errors.New("xrcube: device does not support rendering to texture array slices selected by instance index")

	// ErrNoBackend is returned when no renderer backend is registered.
	ErrNoBackend = errors.New("xrcube: no renderer backend registered")

	// ErrShaderInvalid is returned when the cube shader fails validation.
	ErrShaderInvalid = errors.New("xrcube: invalid cube shader")
)
