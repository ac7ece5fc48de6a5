package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps that writes to w
// and filters below level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          appName,
	})
}

// stopwatch logs completion of a step with its elapsed time.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg and the elapsed time rounded to the millisecond, e.g.
// "Device ready (12ms)".
func (s *stopwatch) done(msg string, keyvals ...any) {
	s.logger.Info(msg, append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))...)
}
