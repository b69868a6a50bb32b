// Package logging configures the JSON slog handler shared by the server and
// the dashboard.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger is a *slog.Logger that may own the file it writes to.
type Logger struct {
	*slog.Logger
	mu   sync.Mutex
	file *os.File
}

// New writes JSON logs to path, or to stderr when path is empty. The
// dashboard always passes a path since it owns the terminal.
func New(path, level string) (*Logger, error) {
	if path == "" {
		return NewWithWriter(os.Stderr, level), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := NewWithWriter(file, level)
	l.file = file
	return l, nil
}

func NewWithWriter(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{Logger: slog.New(handler)}
}

// Discard drops everything. Used by tests and as the zero-config fallback.
func Discard() *Logger {
	return NewWithWriter(io.Discard, LevelError)
}

// ParseLevel maps a level name to slog.Level, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "WARNING":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger sharing the same output.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{Logger: l.Logger.With(args...), file: l.file}
}

// Component tags every entry with the subsystem that produced it.
func (l *Logger) Component(name string) *slog.Logger {
	return l.Logger.With(slog.String("component", name))
}

// Close closes the log file, if any. Child loggers share the file, so only
// the root logger should be closed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
