package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	base, _ := observed()

	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	assert.NotNil(t, FromContext(context.Background()))

	wrongType := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotPanics(t, func() { FromContext(wrongType).Info("ignored") })
}

func TestWithRequestID(t *testing.T) {
	base, logs := observed()

	ctx, log := WithRequestID(context.Background(), base, "req-123")
	log.Info("Manual run requested")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, log, FromContext(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", fieldMap(logs.All()[0])["request_id"])
}

func TestWithJobRun(t *testing.T) {
	base, logs := observed()

	ctx, log := WithJobRun(context.Background(), base, "settlement", "run-1")
	log.Info("Job run started")

	assert.Equal(t, "settlement", GetJob(ctx))
	assert.Equal(t, "run-1", GetRunID(ctx))
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "settlement", fields["job"])
	assert.Equal(t, "run-1", fields["run_id"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetJob(ctx))
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestTraceCorrelation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "job.settlement")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))

	base, logs := observed()
	WithTraceContext(ctx, base).Info("traced")
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, GetTraceID(ctx), fields["trace_id"])
	assert.Equal(t, GetSpanID(ctx), fields["span_id"])
}

func TestWithTraceContext_NoSpan(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithTraceContext(context.Background(), base))
}

func TestContextLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	base, logs := observed()
	ctx, _ := WithJobRun(context.Background(), base, "dividend", "run-7")
	ctx, span := tp.Tracer("test").Start(ctx, "job.dividend")
	defer span.End()

	L(ctx).With(zap.Int("candidates", 4)).Info("Batch loaded")
	L(ctx).Warn("Investment skipped")
	L(ctx).Debug("detail")
	L(ctx).Error("Investment settlement failed")

	require.Equal(t, 4, logs.Len())
	first := fieldMap(logs.All()[0])
	assert.Equal(t, "dividend", first["job"])
	assert.Equal(t, "run-7", first["run_id"])
	assert.Equal(t, int64(4), first["candidates"])
	assert.Equal(t, GetTraceID(ctx), first["trace_id"])
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[3].Level)
}

func TestWithLogger(t *testing.T) {
	base, logs := observed()
	WithLogger(context.Background(), base).Info("direct")
	assert.Equal(t, 1, logs.Len())

	var nilLogger *ContextLogger = &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() { nilLogger.Info("dropped") })
	assert.NotNil(t, nilLogger.Zap())
}
