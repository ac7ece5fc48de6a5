package xrcube

import (
	"log/slog"

	"github.com/gogpu/gputypes"
)

// mockRenderer records calls for registry and logger tests.
type mockRenderer struct {
	name   string
	logger *slog.Logger
	closed int
}

func (m *mockRenderer) InitializeDevice(AdapterIdentity, []FeatureLevel) (DeviceHandle, error) {
	return nil, ErrNoAdapter
}
func (m *mockRenderer) SupportedColorFormats() []gputypes.TextureFormat { return SupportedColorFormats() }
func (m *mockRenderer) SupportedDepthFormats() []gputypes.TextureFormat { return SupportedDepthFormats() }
func (m *mockRenderer) RenderView(*ViewRequest) error                  { return ErrNotInitialized }
func (m *mockRenderer) Close()                                         { m.closed++ }
func (m *mockRenderer) SetLogger(l *slog.Logger)                       { m.logger = l }

// registerMock registers a fresh mockRenderer factory under name and
// returns a pointer that is updated with the renderer the factory last made.
func registerMock(name string) **mockRenderer {
	var made *mockRenderer
	RegisterBackend(name, func() Renderer {
		made = &mockRenderer{name: name}
		return made
	})
	return &made
}

func resetLastRenderer() {
	lastMu.Lock()
	last = nil
	lastMu.Unlock()
}
