package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DividendJobName identifies the dividend batch in logs, metrics and the scheduler
const DividendJobName = "dividend"

const dividendGatewayTag = "investment-dividend"

// Dividend is the committed result of one dividend tick
type Dividend struct {
	InvestmentID uuid.UUID
	UserID       uuid.UUID
	ProjectName  string
	Rate         decimal.Decimal
	Amount       decimal.Decimal
	Period       string
	Count        int
	Credit       *account.CreditResult
}

// DividendService pays monthly interim dividends on flexible investments
type DividendService struct {
	cfg  Config
	deps Dependencies
	calc investment.Calculator
}

// NewDividendService creates a new DividendService
func NewDividendService(cfg Config, deps Dependencies) *DividendService {
	cfg = cfg.withDefaults()
	return &DividendService{
		cfg:  cfg,
		deps: deps.withDefaults(),
		calc: investment.NewCalculator(cfg.MoneyScale),
	}
}

// Name implements the scheduler job contract
func (s *DividendService) Name() string {
	return DividendJobName
}

// Run credits every flexible investment whose dividend is due this month
func (s *DividendService) Run(ctx context.Context) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dividend", "run")
	defer span.End()

	now := s.deps.Clock()
	result := newBatchResult(DividendJobName, now)

	candidates, err := s.deps.Investments.FindEligibleForDividend(ctx, now, s.cfg.BatchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load dividend candidates: %w", err)
	}

	due := make([]*investment.Investment, 0, len(candidates))
	for _, inv := range candidates {
		if inv.DividendDue(now, s.cfg.SeedDividendFromStart) {
			due = append(due, inv)
		}
	}
	result.Candidates = len(due)
	telemetry.SetAttribute(span, "candidates", len(due))

	result.Unprocessed = forEach(ctx, s.cfg.Concurrency, due,
		func(ctx context.Context, inv *investment.Investment) {
			d, err := s.Accrue(ctx, inv, now)
			s.observe(ctx, result, inv, d, err)
		},
		func(ctx context.Context, inv *investment.Investment, err error) {
			s.observe(ctx, result, inv, nil, err)
		},
	)

	result.FinishedAt = s.deps.Clock()
	s.deps.Recorder.BatchCompleted(ctx, result)
	if result.Unprocessed > 0 {
		s.deps.Logger.Warn("Dividend batch interrupted",
			zap.String("job", DividendJobName),
			zap.Int("unprocessed", result.Unprocessed),
			zap.Error(ctx.Err()),
		)
	}
	s.deps.Logger.Info("Dividend batch completed",
		zap.String("job", DividendJobName),
		zap.Int("scanned", len(candidates)),
		zap.Int("due", result.Candidates),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int("unprocessed", result.Unprocessed),
		zap.String("credited", result.Credited.String()),
		zap.Duration("duration", result.Duration()),
	)
	return result, nil
}

func (s *DividendService) observe(ctx context.Context, result *BatchResult, inv *investment.Investment, d *Dividend, err error) {
	log := s.deps.Logger.With(zap.String("job", DividendJobName), zap.String("investment_id", inv.ID.String()))
	if err == nil {
		result.record(OutcomeSucceeded, d.Amount, decimal.Zero)
		s.deps.Recorder.DividendProcessed(ctx, OutcomeSucceeded, "", d.Amount)
		return
	}

	class := Classify(err)
	if class == ClassConflict {
		log.Debug("Dividend skipped", zap.Error(err))
		result.record(OutcomeSkipped, decimal.Zero, decimal.Zero)
		s.deps.Recorder.DividendProcessed(ctx, OutcomeSkipped, class, decimal.Zero)
		return
	}

	log.Error("Dividend accrual failed", zap.String("class", string(class)), zap.Error(err))
	result.record(OutcomeFailed, decimal.Zero, decimal.Zero)
	s.deps.Recorder.DividendProcessed(ctx, OutcomeFailed, class, decimal.Zero)
	userID := inv.UserID
	s.deps.Alerter.Alert(ctx, Alert{
		UserID:  &userID,
		Message: fmt.Sprintf("Dividend for investment %s failed: %v", inv.ID, err),
		Channel: ChannelFailure,
		Tag:     DividendJobName,
		Detail: map[string]any{
			"investment_id": inv.ID.String(),
			"period":        investment.DividendPeriod(s.deps.Clock()),
			"class":         string(class),
		},
	})
}

// Accrue pays one dividend tick for the investment at now. The credit and
// the dividend bookkeeping commit together; a declined credit leaves the
// investment untouched and still due.
func (s *DividendService) Accrue(ctx context.Context, candidate *investment.Investment, now time.Time) (*Dividend, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dividend", "accrue",
		telemetry.WithAttribute(telemetry.SpanAttrInvestmentID, candidate.ID.String()))
	defer span.End()

	release, ok, err := s.deps.Locker.Acquire(ctx, LockKey(candidate.ID), s.cfg.LockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire investment lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer release()

	var d *Dividend
	err = s.deps.UnitOfWork.Do(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.Investments().FindByID(ctx, candidate.ID)
		if err != nil {
			return referenceError(err, "investment", candidate.ID)
		}
		if !inv.DividendDue(now, s.cfg.SeedDividendFromStart) {
			return ErrNotDue
		}
		l, err := tx.Listings().FindByID(ctx, inv.ListingID)
		if err != nil {
			return referenceError(err, "listing", inv.ListingID)
		}

		rate := investment.ResolveReturnRate(l, investment.CategoryFlexible)
		amount, err := s.calc.MonthlyDividend(inv, rate)
		if err != nil {
			return err
		}

		d = &Dividend{
			InvestmentID: inv.ID,
			UserID:       inv.UserID,
			ProjectName:  l.ProjectName,
			Rate:         rate,
			Amount:       amount,
			Period:       investment.DividendPeriod(now),
		}

		if amount.IsPositive() {
			ref := DividendReference(inv.ID, now)
			res, err := tx.Ledger().Credit(ctx, account.CreditRequest{
				UserID:      inv.UserID,
				Amount:      amount,
				Currency:    s.cfg.Currency,
				GatewayTag:  dividendGatewayTag,
				Description: fmt.Sprintf("Dividend %s for investment in %s", d.Period, l.ProjectName),
				Reference:   ref,
			})
			if err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
			if !res.Success {
				return &CreditFailedError{Reference: ref, Message: res.Message}
			}
			d.Credit = &res
		}

		inv.RecordDividend(now)
		d.Count = inv.DividendsCount
		if err := tx.Investments().Update(ctx, inv); err != nil {
			return fmt.Errorf("failed to update investment: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.notify(ctx, d)
	return d, nil
}

func (s *DividendService) notify(ctx context.Context, d *Dividend) {
	if s.deps.Notifier == nil || !d.Amount.IsPositive() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PostCommitTimeout)
	defer cancel()

	err := s.deps.Notifier.Enqueue(ctx, Notification{
		UserID:     d.UserID,
		Title:      "Dividend received",
		Category:   "wallet",
		Content:    fmt.Sprintf("%s %s dividend from %s was credited to your wallet.", s.cfg.Currency, d.Amount.StringFixed(s.cfg.MoneyScale), d.ProjectName),
		ActionLink: s.cfg.AppBaseURL + "/wallet",
	})
	if err != nil {
		s.deps.Logger.Warn("Failed to enqueue dividend notification",
			zap.String("investment_id", d.InvestmentID.String()),
			zap.Error(err),
		)
	}
}
