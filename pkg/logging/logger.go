// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a level name from configuration.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level, defaulting to info.
func parseLevel(level LogLevel) zerolog.Level {
	l, err := ParseLevel(string(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// WithSession tags logger with a fetch session's identity.
func WithSession(logger zerolog.Logger, sessionID uint64, traceID string) zerolog.Logger {
	return logger.With().
		Uint64(FieldSession, sessionID).
		Str(FieldTraceID, traceID).
		Logger()
}

// Context field names shared across packages.
const (
	FieldComponent  = "component"
	FieldSession    = "session"
	FieldTraceID    = "trace_id"
	FieldPage       = "page"
	FieldErrorClass = "error_class"
	FieldStatus     = "status"
)

// Log Level Guidelines:
//
// Debug: skipped or discarded work
//   - Automatic fetch skipped (loading, error, aborted, end of list)
//   - Stale settlement discarded after a newer session started
//   - Throttled trigger dropped or deferred
//   - Connectivity probe transitions
//
// Info: normal lifecycle events
//   - Fetch session started, page appended
//   - Persisted state restored on mount
//   - Session cancelled, pagination reset
//   - Proxy startup/shutdown
//
// Warn: recoverable conditions
//   - Retry attempts
//   - Persist/load failures (in-memory state unaffected)
//   - Session settled with an error
//   - Network offline
//
// Error: retries exhausted, configuration errors
//
// Context Fields:
//   - component: emitting package
//   - session: fetch session sequence number
//   - trace_id: session trace ID, sent upstream as X-Request-ID
//   - page: page number the cursor pointed at
//   - error_class: timeout, server, client, aborted, unknown
//   - status: HTTP status or pagination status
