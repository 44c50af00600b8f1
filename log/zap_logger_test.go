package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("hidden %d", 1)
	logger.Info("repair %s", "started")
	logger.Warn("attempt %d failed", 1)
	logger.Error("budget exhausted")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "repair started", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "budget exhausted", entries[2].Message)
	}
}

func TestZapLogger_Nil(t *testing.T) {
	logger := NewZapLogger(nil)
	logger.Info("nothing happens")
	assert.NotNil(t, logger.sugar)
}
