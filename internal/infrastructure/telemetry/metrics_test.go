package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "estatevest-worker",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

// collect reads every metric recorded so far into a name-indexed map
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricHelpers(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	meter := provider.Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "payout_items_total", "items", "{items}")
	require.NoError(t, err)
	counter.Inc(ctx, telemetry.AttrJob.String("settlement"))
	counter.Add(ctx, 2, telemetry.AttrJob.String("settlement"))

	amounts, err := telemetry.NewFloatCounter(meter, "payout_credited_total", "credited", "{USD}")
	require.NoError(t, err)
	amounts.Add(ctx, 12.5)

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "payout_batch_duration_seconds",
		Unit:       "s",
		Boundaries: telemetry.BatchDurationBuckets,
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 1500*time.Millisecond)

	gauge, err := telemetry.NewGauge(meter, "payout_batch_candidates", "candidates", "{items}")
	require.NoError(t, err)
	gauge.Record(ctx, 7)

	metrics := collect(t, reader)

	sum, ok := metrics["payout_items_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	fsum, ok := metrics["payout_credited_total"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 12.5, fsum.DataPoints[0].Value, 1e-9)

	h, ok := metrics["payout_batch_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.InDelta(t, 1.5, h.DataPoints[0].Sum, 1e-9)

	g, ok := metrics["payout_batch_candidates"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(7), g.DataPoints[0].Value)
}
