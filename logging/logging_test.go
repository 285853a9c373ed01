package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrappersUseGlobalLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := GetLogger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	Info("rendered", zap.Int("count", 3))
	Warn("slow")
	Error("failed", zap.String("kind", "wifi"))

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "rendered", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["count"])
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}

func TestWithTraceContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := GetLogger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	WithTraceContext(trace.SpanFromContext(context.Background())).Info("no span")
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithTraceContext(trace.SpanFromContext(ctx)).Info("with span")
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}

func TestDefaultLoggerIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("before init")
		_ = Sync()
	})
}
