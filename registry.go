package xrcube

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
)

// BackendWGPU is the name the wgpu HAL backend registers under.
const BackendWGPU = "wgpu"

var backends = gpucontext.NewRegistry[Renderer](gpucontext.WithPriority(BackendWGPU))

var (
	lastMu sync.RWMutex
	last   Renderer
)

// RegisterBackend makes a renderer factory available under name. A later
// registration under the same name replaces the earlier one.
func RegisterBackend(name string, factory func() Renderer) {
	backends.Register(name, factory)
}

// Backends returns the registered backend names.
func Backends() []string {
	return backends.Available()
}

// NewRenderer creates a renderer from the highest-priority registered
// backend.
func NewRenderer() (Renderer, error) {
	name := backends.BestName()
	if name == "" {
		return nil, ErrNoBackend
	}
	return NewRendererNamed(name)
}

// NewRendererNamed creates a renderer from the backend registered as name.
// The renderer receives the current logger.
func NewRendererNamed(name string) (Renderer, error) {
	if !backends.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNoBackend, name)
	}
	r := backends.Get(name)
	if r == nil {
		return nil, fmt.Errorf("%w: %q returned nil", ErrNoBackend, name)
	}
	propagateLogger(r, Logger())

	lastMu.Lock()
	last = r
	lastMu.Unlock()
	return r, nil
}
