// Package log is the structured logging facade used across palabra.
//
// A Logger carries leveled methods and typed Fields. Records are routed
// through log/slog with a bridge handler that renders them using a
// Formatter (text or JSON) and fans them out to one or more Outputs.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("dispatch"))
//	l.Info("broadcast finished", log.Int("sent", 12), log.Int("failed", 1))
//
// ApplyConfig builds a Logger from a declarative Config. RedirectStdLog
// sends output of the standard library logger (used by Pebble) through a
// Logger.
package log
