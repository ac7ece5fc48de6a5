package xrcube

import (
	"log/slog"
	"sync/atomic"
)

// silent is the logger in effect until SetLogger installs another one.
var silent = slog.New(slog.DiscardHandler)

var currentLogger atomic.Pointer[slog.Logger]

// SetLogger routes xrcube's diagnostics to l and hands l to the renderer
// most recently created through the registry. Logging is off by default;
// nil turns it off again.
//
// Levels:
//   - [slog.LevelDebug]: pipeline creation, uniform buffer growth, swapchain allocation
//   - [slog.LevelInfo]: the adapter and feature level a device was opened on
//   - [slog.LevelWarn]: problems while releasing GPU objects
//
// Example:
//
//	xrcube.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	currentLogger.Store(l)

	lastMu.RLock()
	r := last
	lastMu.RUnlock()
	if r != nil {
		propagateLogger(r, Logger())
	}
}

// Logger returns the logger set by SetLogger, or a logger that discards
// everything. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := currentLogger.Load(); l != nil {
		return l
	}
	return silent
}

// loggerSetter is implemented by renderers that log.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(r Renderer, l *slog.Logger) {
	if ls, ok := r.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
