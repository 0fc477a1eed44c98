package payout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Recorder receives per-investment and per-batch measurements
type Recorder interface {
	SettlementProcessed(ctx context.Context, outcome Outcome, branch string, class ErrorClass, credited, reinvested decimal.Decimal)
	DividendProcessed(ctx context.Context, outcome Outcome, class ErrorClass, amount decimal.Decimal)
	BatchCompleted(ctx context.Context, r *BatchResult)
}

type nopRecorder struct{}

func (nopRecorder) SettlementProcessed(context.Context, Outcome, string, ErrorClass, decimal.Decimal, decimal.Decimal) {
}

func (nopRecorder) DividendProcessed(context.Context, Outcome, ErrorClass, decimal.Decimal) {}

func (nopRecorder) BatchCompleted(context.Context, *BatchResult) {}
