package payout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of processing one investment in a batch
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"

	// OutcomeUnprocessed counts candidates never started because the run was cancelled
	OutcomeUnprocessed Outcome = "unprocessed"
)

// BatchResult summarises one engine run
type BatchResult struct {
	Job         string          `json:"job"`
	Candidates  int             `json:"candidates"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	Unprocessed int             `json:"unprocessed"` // left for the next run after cancellation
	Credited    decimal.Decimal `json:"credited"`
	Reinvested  decimal.Decimal `json:"reinvested"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`

	mu sync.Mutex
}

func newBatchResult(job string, startedAt time.Time) *BatchResult {
	return &BatchResult{Job: job, StartedAt: startedAt, Credited: decimal.Zero, Reinvested: decimal.Zero}
}

func (r *BatchResult) record(o Outcome, credited, reinvested decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case OutcomeSucceeded:
		r.Succeeded++
		r.Credited = r.Credited.Add(credited)
		r.Reinvested = r.Reinvested.Add(reinvested)
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}

// Duration is the wall time of the run
func (r *BatchResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// forEach runs fn for every investment with at most limit in flight. A panic
// inside fn is reported to recovered and never escapes the batch. Once ctx is
// done no further items are started; the number left over is returned.
func forEach(
	ctx context.Context,
	limit int,
	items []*investment.Investment,
	fn func(ctx context.Context, inv *investment.Investment),
	recovered func(ctx context.Context, inv *investment.Investment, err error),
) int {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	started := 0
	for _, inv := range items {
		if gctx.Err() != nil {
			break
		}
		started++
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					recovered(gctx, inv, fmt.Errorf("panic processing investment %s: %v", inv.ID, r))
				}
			}()
			fn(gctx, inv)
			return nil
		})
	}
	_ = g.Wait()
	return len(items) - started
}
