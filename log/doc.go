// Package log provides the leveled logging interface used across langfix.
//
// The repair loop, the stores and the proxy model all log through the Logger
// interface. Three implementations are provided:
//
//   - DefaultLogger writes through the standard library to any io.Writer
//   - GologLogger forwards to a kataras/golog logger
//   - ZapLogger forwards to a zap.SugaredLogger
//
// NoOpLogger discards everything and is what tests usually want.
//
// # Levels
//
// LogLevelDebug, LogLevelInfo, LogLevelWarn and LogLevelError filter messages
// by severity; LogLevelNone disables output. ParseLevel converts the strings
// accepted in configuration ("debug", "info", "warn", "error", "none").
//
// # Example
//
//	logger := log.NewGologLogger(golog.New())
//	logger.SetLevel(log.LogLevelDebug)
//
//	loop, err := repair.New(s, gen, repair.WithLogger(logger))
//
// A package-level default logger is also available for code that does not
// carry one around:
//
//	log.SetLogLevel(log.LogLevelWarn)
//	log.Warn("attempt %d failed: %v", n, err)
package log
