package ccutils

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger is the logging surface the orchestrator and its components
// depend on. The CLI injects a slog-backed implementation; tests inject
// a capturing one.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type slogLogger struct {
	l *slog.Logger
}

// NewLogger returns the default slog-backed Logger writing to stderr.
// Verbose lowers the handler level to debug.
func NewLogger(verbose bool) Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

func (s *slogLogger) Debugf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Infof(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Warnf(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Errorf(format string, args ...any) {
	s.l.Error(fmt.Sprintf(format, args...))
}
