package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/kiln/internal/observability"
)

func TestContextValues(t *testing.T) {
	t.Run("should round trip values through context", func(t *testing.T) {
		ctx := context.Background()
		ctx = observability.WithTraceID(ctx, "trace")
		ctx = observability.WithRequestID(ctx, "req")
		ctx = observability.WithCompletionType(ctx, "chat")
		ctx = observability.WithFingerprint(ctx, "chat:abc")

		require.Equal(t, "trace", observability.GetTraceID(ctx))
		require.Equal(t, "req", observability.GetRequestID(ctx))
		require.Equal(t, "chat", observability.GetCompletionType(ctx))
		require.Equal(t, "chat:abc", observability.GetFingerprint(ctx))
		require.Empty(t, observability.GetModel(ctx))
	})

	t.Run("should generate ids of the expected size", func(t *testing.T) {
		require.Len(t, observability.GenerateTraceID(), 32)
		require.Len(t, observability.GenerateSpanID(), 16)
		require.NotEqual(t, observability.GenerateRequestID(), observability.GenerateRequestID())
	})
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(nil) })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	ctx = observability.WithModel(ctx, "llama-7b")

	observability.FromContext(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "llama-7b", fields["model"])
	require.NotContains(t, fields, "trace_id")
}

func TestInitLogger(t *testing.T) {
	t.Run("should reject unknown levels", func(t *testing.T) {
		_, err := observability.InitLogger(&observability.Config{Level: "loud"})
		require.Error(t, err)
	})

	t.Run("should build with defaults", func(t *testing.T) {
		logger, err := observability.InitLogger(&observability.Config{Level: "debug"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		observability.SetLogger(nil)
	})
}
