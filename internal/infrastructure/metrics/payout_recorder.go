// Package metrics exports the payout engines' measurements as OpenTelemetry instruments.
package metrics

import (
	"context"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PayoutRecorder implements payout.Recorder on top of an OpenTelemetry meter.
type PayoutRecorder struct {
	items         *telemetry.Counter
	credited      *telemetry.FloatCounter
	reinvested    *telemetry.FloatCounter
	batches       *telemetry.Counter
	batchDuration *telemetry.Histogram
	candidates    *telemetry.Gauge
}

var _ payout.Recorder = (*PayoutRecorder)(nil)

// NewPayoutRecorder creates the payout instruments on meter.
func NewPayoutRecorder(meter metric.Meter) (*PayoutRecorder, error) {
	if meter == nil {
		return nil, telemetry.ErrMeterNil
	}

	r := &PayoutRecorder{}
	var err error
	if r.items, err = telemetry.NewCounter(meter,
		"payout_items_total",
		"Investments processed by job and outcome",
		"{investment}",
	); err != nil {
		return nil, err
	}
	if r.credited, err = telemetry.NewFloatCounter(meter,
		"payout_credited_amount_total",
		"Amount credited to investor wallets",
		"{USD}",
	); err != nil {
		return nil, err
	}
	if r.reinvested, err = telemetry.NewFloatCounter(meter,
		"payout_reinvested_amount_total",
		"Amount rolled into new investments",
		"{USD}",
	); err != nil {
		return nil, err
	}
	if r.batches, err = telemetry.NewCounter(meter,
		"payout_batches_total",
		"Completed engine runs",
		"{batch}",
	); err != nil {
		return nil, err
	}
	if r.batchDuration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "payout_batch_duration_seconds",
		Description: "Wall time of one engine run",
		Unit:        "s",
		Boundaries:  telemetry.BatchDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if r.candidates, err = telemetry.NewGauge(meter,
		"payout_batch_candidates",
		"Investments selected by the last run",
		"{investment}",
	); err != nil {
		return nil, err
	}
	return r, nil
}

// SettlementProcessed implements payout.Recorder.
func (r *PayoutRecorder) SettlementProcessed(ctx context.Context, outcome payout.Outcome, branch string, class payout.ErrorClass, credited, reinvested decimal.Decimal) {
	attrs := itemAttrs(payout.SettlementJobName, outcome, class)
	if branch != "" {
		attrs = append(attrs, telemetry.AttrBranch.String(branch))
	}
	r.items.Inc(ctx, attrs...)

	job := telemetry.AttrJob.String(payout.SettlementJobName)
	if credited.IsPositive() {
		r.credited.Add(ctx, credited.InexactFloat64(), job)
	}
	if reinvested.IsPositive() {
		r.reinvested.Add(ctx, reinvested.InexactFloat64(), job)
	}
}

// DividendProcessed implements payout.Recorder.
func (r *PayoutRecorder) DividendProcessed(ctx context.Context, outcome payout.Outcome, class payout.ErrorClass, amount decimal.Decimal) {
	r.items.Inc(ctx, itemAttrs(payout.DividendJobName, outcome, class)...)
	if amount.IsPositive() {
		r.credited.Add(ctx, amount.InexactFloat64(), telemetry.AttrJob.String(payout.DividendJobName))
	}
}

// BatchCompleted implements payout.Recorder.
func (r *PayoutRecorder) BatchCompleted(ctx context.Context, res *payout.BatchResult) {
	job := telemetry.AttrJob.String(res.Job)
	r.batches.Inc(ctx, job)
	r.batchDuration.RecordDuration(ctx, res.Duration(), job)
	r.candidates.Record(ctx, int64(res.Candidates), job)
	if res.Unprocessed > 0 {
		r.items.Add(ctx, int64(res.Unprocessed), itemAttrs(res.Job, payout.OutcomeUnprocessed, "")...)
	}
}

func itemAttrs(job string, outcome payout.Outcome, class payout.ErrorClass) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		telemetry.AttrJob.String(job),
		telemetry.AttrOutcome.String(string(outcome)),
	}
	if class != "" {
		attrs = append(attrs, telemetry.AttrClass.String(string(class)))
	}
	return attrs
}
