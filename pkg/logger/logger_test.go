package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextWithCorrelationID(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "test-id")
	assert.Equal(t, "test-id", CorrelationIDFromContext(ctx))
}

func TestCorrelationIDFromNilContext(t *testing.T) {
	assert.Equal(t, "", CorrelationIDFromContext(nil))
}

func TestWithContextAddsFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	ctx := ContextWithCorrelationID(context.Background(), "context-id")
	ctx = ContextWithVehicleID(ctx, "veh-1")

	InfoContext(ctx, "test message")

	entries := recorded.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "context-id", fields["correlation_id"])
	assert.Equal(t, "veh-1", fields["vehicle_id"])
}

func TestWithContextWithoutFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	WarnContext(context.Background(), "plain")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Environment: "development", Level: "loud"})
	assert.Error(t, err)
}

func TestInitAttachesServiceName(t *testing.T) {
	restore := Replace(nil)
	defer restore()

	require.NoError(t, Init(Config{Environment: "production", Level: "warn", ServiceName: "fleet"}))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Get().Core().Enabled(zapcore.WarnLevel))
}
