package xrcube

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// restoreLogger puts the logger in effect before the test back afterwards.
func restoreLogger(t *testing.T) {
	t.Helper()
	prev := currentLogger.Load()
	t.Cleanup(func() { currentLogger.Store(prev) })
}

func TestLoggerSilentByDefault(t *testing.T) {
	restoreLogger(t)
	SetLogger(nil)

	l := Logger()
	if l != silent {
		t.Fatal("Logger() without SetLogger is not the discarding logger")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("silent logger enabled at %v", level)
		}
	}
	if silent.Handler() != slog.DiscardHandler {
		t.Error("silent logger does not use slog.DiscardHandler")
	}
}

func TestSetLoggerRoutesRecords(t *testing.T) {
	restoreLogger(t)

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)

	if Logger() != custom {
		t.Fatal("Logger() does not return the installed logger")
	}
	Logger().Debug("pipeline created", "compare", "greater")
	if out := buf.String(); !strings.Contains(out, "pipeline created") || !strings.Contains(out, "compare=greater") {
		t.Errorf("record not written: %q", out)
	}

	SetLogger(nil)
	if Logger() != silent {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestSetLoggerReachesLastRenderer(t *testing.T) {
	restoreLogger(t)
	t.Cleanup(func() {
		resetLastRenderer()
		backends.Unregister("logger-test")
	})

	made := registerMock("logger-test")
	if _, err := NewRendererNamed("logger-test"); err != nil {
		t.Fatalf("NewRendererNamed: %v", err)
	}
	if (*made).logger != Logger() {
		t.Error("new renderer did not receive the current logger")
	}

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if (*made).logger != custom {
		t.Error("SetLogger did not reach the renderer")
	}

	SetLogger(nil)
	if (*made).logger != silent {
		t.Error("renderer kept a logger after SetLogger(nil)")
	}
}

func TestLoggerConcurrentUse(t *testing.T) {
	restoreLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if l := Logger(); l == nil {
				t.Error("Logger() returned nil")
			} else {
				l.Debug("frame")
			}
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkSilentLogger(b *testing.B) {
	l := silent
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("frame", "views", 2)
	}
}
