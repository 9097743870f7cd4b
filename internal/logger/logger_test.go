package logger

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	// Save original logger to restore later
	originalLog := log
	defer func() { log = originalLog }()

	t.Run("Production", func(t *testing.T) {
		Init("production")
		assert.NotNil(t, log)
	})

	t.Run("Development", func(t *testing.T) {
		Init("development")
		assert.NotNil(t, log)
	})
}

func TestL(t *testing.T) {
	// Save original logger
	originalLog := log
	defer func() { log = originalLog }()

	// Force nil to test lazy initialization
	log = nil
	os.Setenv("APP_ENV", "test")

	l := L()
	assert.NotNil(t, l)
	assert.NotNil(t, log)
}

func TestContextFunctions(t *testing.T) {
	ctx := context.Background()
	sagaID := "15a497c1-0f4b-4eff-b9f4-c402c8c07afa"

	t.Run("WithSagaID", func(t *testing.T) {
		newCtx := WithSagaID(ctx, sagaID)
		assert.NotEqual(t, ctx, newCtx)

		val := newCtx.Value(sagaIDKey)
		assert.Equal(t, sagaID, val)
	})

	t.Run("SagaIDFrom", func(t *testing.T) {
		ctxWithID := WithSagaID(ctx, sagaID)
		assert.Equal(t, sagaID, SagaIDFrom(ctxWithID))

		assert.Equal(t, "", SagaIDFrom(ctx))
	})
}

func TestFromCtx(t *testing.T) {
	// Create an observer to verify logs
	core, observed := observer.New(zapcore.InfoLevel)
	obsLogger := zap.New(core)

	// Swap the global logger with our observer logger
	originalLog := log
	log = obsLogger
	defer func() { log = originalLog }()

	t.Run("WithSagaID", func(t *testing.T) {
		sagaID := "saga-abc-123"
		ctx := WithSagaID(context.Background(), sagaID)

		l := FromCtx(ctx)
		l.Info("processing message")

		entries := observed.TakeAll()
		assert.Len(t, entries, 1)
		assert.Equal(t, "processing message", entries[0].Message)
		assert.Equal(t, sagaID, entries[0].ContextMap()["saga_id"])
	})

	t.Run("WithoutSagaID", func(t *testing.T) {
		l := FromCtx(context.Background())
		l.Info("no correlation")

		entries := observed.TakeAll()
		assert.Len(t, entries, 1)
		_, hasSagaID := entries[0].ContextMap()["saga_id"]
		assert.False(t, hasSagaID)
	})
}
