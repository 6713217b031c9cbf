// Package log provides structured logging for goinspect on top of zerolog.
//
// The Logger interface is deliberately small and slog-shaped: leveled
// methods taking alternating key/value fields, plus With for contextual
// loggers. Errors logged through the "error" key get a stacktrace attribute
// extracted from cockroachdb/errors when one is available.
package log

import (
	"context"
	"io"
	"os"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Logger is the structured logging interface used throughout goinspect.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values match log/slog.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const (
	// ErrAttrKey is the field key under which errors are logged.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the field key for extracted stack traces.
	StacktraceAttrKey = "stacktrace"
)

var (
	mu            sync.RWMutex
	defaultOutput io.Writer = os.Stderr
	defaultLevel            = LevelInfo
)

// SetLevel sets the minimum level for loggers created after the call.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	defaultLevel = level
}

// SetOutput redirects loggers created after the call to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	defaultOutput = w
}

// GetLogger returns a logger with the current default level and output.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	zl := zerolog.New(defaultOutput).Level(toZerologLevel(defaultLevel)).With().Timestamp().Logger()
	return &zerologLogger{logger: zl, level: defaultLevel}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With("component", name)
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

type zerologLogger struct {
	logger zerolog.Logger
	level  Level
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.logger.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.logger.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.logger.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.logger.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{logger: ctx.Logger(), level: z.level}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.level <= level
}

func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if err, isErr := value.(error); isErr {
			e = e.AnErr(key, err)
			if key == ErrAttrKey {
				if st := extractStacktrace(err); st != "" {
					e = e.Str(StacktraceAttrKey, st)
				}
			}
			continue
		}
		if obj, isObj := value.(zerolog.LogObjectMarshaler); isObj {
			e = e.Object(key, obj)
			continue
		}
		e = e.Interface(key, value)
	}
	e.Msg(msg)
}

// extractStacktrace pulls the first safe detail (the stack trace) out of a
// cockroachdb error, if present.
func extractStacktrace(err error) string {
	safeDetails := cerrors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
