package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the severity of a log entry.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses debug|info|warn|warning|error (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Fields is a set of structured key/value pairs attached to an entry.
type Fields map[string]any

// Entry is a single rendered log record.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
}

// Logger is the logging interface passed to every component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Infof(format string, args ...any)
	Errorf(format string, args ...any)

	With(fields ...Field) Logger
	WithComponent(component string) Logger
	WithError(err error) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Formatter renders an Entry into bytes.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output receives formatted entries.
type Output interface {
	Write(entry *Entry, formatted []byte) error
	Close() error
}

// LoggerOption configures a BaseLogger.
type LoggerOption func(*BaseLogger)

// BaseLogger is the default Logger implementation.
type BaseLogger struct {
	level     *atomic.Int32
	formatter Formatter
	outputs   []Output
	slog      *slog.Logger
}

// NewLogger builds a Logger. Defaults: info level, JSON formatter, console output.
func NewLogger(options ...LoggerOption) Logger {
	l := &BaseLogger{
		level:     new(atomic.Int32),
		formatter: &JSONFormatter{},
	}
	l.level.Store(int32(InfoLevel))
	for _, opt := range options {
		opt(l)
	}
	if len(l.outputs) == 0 {
		l.outputs = []Output{NewConsoleOutput()}
	}
	l.slog = slog.New(newBridgeHandler(l))
	return l
}

// WithLevel sets the minimum level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) { l.level.Store(int32(level)) }
}

// WithFormatter sets the formatter.
func WithFormatter(f Formatter) LoggerOption {
	return func(l *BaseLogger) { l.formatter = f }
}

// WithOutput appends an output.
func WithOutput(o Output) LoggerOption {
	return func(l *BaseLogger) { l.outputs = append(l.outputs, o) }
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	if !l.enabled(level) {
		return
	}
	l.slog.LogAttrs(context.Background(), toSlogLevel(level), msg, attrsFromFields(fields)...)
}

func (l *BaseLogger) enabled(level Level) bool { return Level(l.level.Load()) <= level }

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *BaseLogger) Infof(format string, args ...any) {
	l.log(InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (l *BaseLogger) Errorf(format string, args ...any) {
	l.log(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// With returns a child logger carrying the given fields on every entry.
// The child shares level, formatter and outputs with its parent.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	child := *l
	child.slog = l.slog.With(attrsToAny(attrsFromFields(fields))...)
	return &child
}

func (l *BaseLogger) WithComponent(component string) Logger { return l.With(Component(component)) }

func (l *BaseLogger) WithError(err error) Logger { return l.With(Err(err)) }

func (l *BaseLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *BaseLogger) GetLevel() Level { return Level(l.level.Load()) }

// Close closes every output.
func (l *BaseLogger) Close() error {
	var first error
	for _, o := range l.outputs {
		if err := o.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
