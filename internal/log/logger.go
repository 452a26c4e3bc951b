// Package log provides structured logging for abiscope.
//
// It defines a Logger interface backed by Go's stdlib slog so that
// subsystems can log through an injectable handle. Diagnostic output
// always goes to stderr; command results stay on stdout.
//
// Verbosity levels:
//   - ERROR (--quiet): errors only
//   - WARN (default): warnings, including skipped header declarations
//   - INFO (--verbose): operational context such as tool invocations
//   - DEBUG (--debug): parser internals and full command lines
package log

import (
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	// Debug logs at DEBUG level: parser state, argument vectors,
	// details only useful for troubleshooting.
	Debug(msg string, args ...any)

	// Info logs at INFO level: operational context like
	// "running abidiff" or "preprocessing header".
	Info(msg string, args ...any)

	// Warn logs at WARN level: recoverable issues like an
	// unrecognized declaration shape being skipped.
	Warn(msg string, args ...any)

	// Error logs at ERROR level: failures that stop the operation.
	Error(msg string, args ...any)

	// With returns a Logger that includes the given key-value pairs
	// in all subsequent entries.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all log output.
type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Called once from main() after
// parsing verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
