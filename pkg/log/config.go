package log

import (
	"fmt"
	"strings"
)

// Config declares a logger.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text|json
	// Output is "stderr" (default), "null", or a file path.
	Output string `json:"output" yaml:"output"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	var out Output
	switch cfg.Output {
	case "", "stderr", "console":
		out = NewConsoleOutput()
	case "null":
		out = NullOutput{}
	default:
		fo, err := NewFileOutput(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		out = fo
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(out)), nil
}

// NewNopLogger returns a Logger that discards all entries.
func NewNopLogger() Logger {
	return NewLogger(WithLevel(ErrorLevel), WithOutput(NullOutput{}))
}
