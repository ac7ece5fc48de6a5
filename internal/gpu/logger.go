//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var (
	discardLogger = slog.New(slog.DiscardHandler)
	pkgLogger     atomic.Pointer[slog.Logger]
)

// slogger returns the logger installed through StereoCubeRenderer.SetLogger,
// or a discarding one.
func slogger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return discardLogger
}

func setLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}
