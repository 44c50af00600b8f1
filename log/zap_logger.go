package log

import (
	"go.uber.org/zap"
)

// ZapLogger implements Logger on top of a zap.SugaredLogger.
// Level filtering is left to the zap core.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps logger. A nil logger yields a no-op zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Debug(format string, v ...any) { l.sugar.Debugf(format, v...) }
func (l *ZapLogger) Info(format string, v ...any)  { l.sugar.Infof(format, v...) }
func (l *ZapLogger) Warn(format string, v ...any)  { l.sugar.Warnf(format, v...) }
func (l *ZapLogger) Error(format string, v ...any) { l.sugar.Errorf(format, v...) }

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
