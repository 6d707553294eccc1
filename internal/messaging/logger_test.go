package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := messaging.NewZapLogger(zap.New(core))

	logger.Info("subscribed", watermill.LogFields{"topic": "visitQueue"})
	logger.Trace("polling", nil)
	logger.With(watermill.LogFields{"consumer_group": "visit-accounting"}).
		Error("read failed", errors.New("eof"), watermill.LogFields{"attempt": 2})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "visitQueue", entries[0].ContextMap()["topic"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)

	fields := entries[2].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "visit-accounting", fields["consumer_group"])
	assert.Equal(t, "eof", fields["error"])
	assert.EqualValues(t, 2, fields["attempt"])
}
