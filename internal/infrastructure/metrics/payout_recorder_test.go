package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newRecorder(t *testing.T) (*metrics.PayoutRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := metrics.NewPayoutRecorder(provider.Meter("payout"))
	require.NoError(t, err)
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func intPoint(t *testing.T, data metricdata.Aggregation, want ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	set := attribute.NewSet(want...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&set) {
			return dp.Value
		}
	}
	return 0
}

func floatTotal(t *testing.T, data metricdata.Aggregation) float64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[float64])
	require.True(t, ok)
	var total float64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewPayoutRecorder_NilMeter(t *testing.T) {
	_, err := metrics.NewPayoutRecorder(nil)
	assert.Error(t, err)
}

func TestPayoutRecorder_SettlementProcessed(t *testing.T) {
	r, reader := newRecorder(t)
	ctx := context.Background()

	r.SettlementProcessed(ctx, payout.OutcomeSucceeded, "cash_out", "", decimal.NewFromInt(6000), decimal.Zero)
	r.SettlementProcessed(ctx, payout.OutcomeSucceeded, "both", "", decimal.Zero, decimal.NewFromInt(5500))
	r.SettlementProcessed(ctx, payout.OutcomeFailed, "", payout.ClassDataIntegrity, decimal.Zero, decimal.Zero)

	got := collect(t, reader)
	assert.Equal(t, int64(1), intPoint(t, got["payout_items_total"],
		attribute.String("job", "settlement"),
		attribute.String("outcome", "succeeded"),
		attribute.String("branch", "cash_out"),
	))
	assert.Equal(t, int64(1), intPoint(t, got["payout_items_total"],
		attribute.String("job", "settlement"),
		attribute.String("outcome", "failed"),
		attribute.String("error_class", "data_integrity"),
	))
	assert.InDelta(t, 6000, floatTotal(t, got["payout_credited_amount_total"]), 0.001)
	assert.InDelta(t, 5500, floatTotal(t, got["payout_reinvested_amount_total"]), 0.001)
}

func TestPayoutRecorder_DividendProcessed(t *testing.T) {
	r, reader := newRecorder(t)
	ctx := context.Background()

	r.DividendProcessed(ctx, payout.OutcomeSucceeded, "", decimal.RequireFromString("550.25"))
	r.DividendProcessed(ctx, payout.OutcomeSkipped, payout.ClassConflict, decimal.Zero)

	got := collect(t, reader)
	assert.Equal(t, int64(1), intPoint(t, got["payout_items_total"],
		attribute.String("job", "dividend"),
		attribute.String("outcome", "skipped"),
		attribute.String("error_class", "conflict"),
	))
	assert.InDelta(t, 550.25, floatTotal(t, got["payout_credited_amount_total"]), 0.001)
}

func TestPayoutRecorder_BatchCompleted(t *testing.T) {
	r, reader := newRecorder(t)
	started := time.Date(2026, 6, 15, 0, 5, 0, 0, time.UTC)

	r.BatchCompleted(context.Background(), &payout.BatchResult{
		Job:        "settlement",
		Candidates: 12,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	})

	got := collect(t, reader)
	job := attribute.String("job", "settlement")
	assert.Equal(t, int64(1), intPoint(t, got["payout_batches_total"], job))

	gauge, ok := got["payout_batch_candidates"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(12), gauge.DataPoints[0].Value)

	hist, ok := got["payout_batch_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 3.0, hist.DataPoints[0].Sum, 0.001)
}

func TestPayoutRecorder_BatchCompleted_Unprocessed(t *testing.T) {
	r, reader := newRecorder(t)

	r.BatchCompleted(context.Background(), &payout.BatchResult{
		Job:         "dividend",
		Candidates:  5,
		Unprocessed: 3,
	})

	got := collect(t, reader)
	assert.Equal(t, int64(3), intPoint(t, got["payout_items_total"],
		attribute.String("job", "dividend"),
		attribute.String("outcome", "unprocessed"),
	))
}
