package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementJobName identifies the settlement batch in logs, metrics and the scheduler
const SettlementJobName = "settlement"

const settlementGatewayTag = "investment-payout"

// Settlement is the committed result of settling one investment
type Settlement struct {
	InvestmentID  uuid.UUID
	User          *account.User
	Listing       *listing.Listing
	Target        *listing.Listing
	Rate          decimal.Decimal
	FinalReturn   decimal.Decimal
	Decision      investment.Decision
	NewInvestment *investment.Investment
	Credit        *account.CreditResult
	SettledAt     time.Time
}

// SettlementService settles matured investments
type SettlementService struct {
	cfg  Config
	deps Dependencies
	calc investment.Calculator
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(cfg Config, deps Dependencies) *SettlementService {
	cfg = cfg.withDefaults()
	return &SettlementService{
		cfg:  cfg,
		deps: deps.withDefaults(),
		calc: investment.NewCalculator(cfg.MoneyScale),
	}
}

// Name implements the scheduler job contract
func (s *SettlementService) Name() string {
	return SettlementJobName
}

// Run settles every investment that has matured. It only returns an error
// when the candidate set cannot be loaded; per-investment failures are
// alerted and counted in the result.
func (s *SettlementService) Run(ctx context.Context) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "run")
	defer span.End()

	now := s.deps.Clock()
	result := newBatchResult(SettlementJobName, now)
	log := s.deps.Logger.With(zap.String("job", SettlementJobName))

	candidates, err := s.deps.Investments.FindEligibleForSettlement(ctx, now, s.cfg.BatchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load matured investments: %w", err)
	}
	result.Candidates = len(candidates)
	telemetry.SetAttribute(span, "candidates", len(candidates))

	result.Unprocessed = forEach(ctx, s.cfg.Concurrency, candidates,
		func(ctx context.Context, inv *investment.Investment) {
			st, err := s.Settle(ctx, inv)
			s.observe(ctx, result, inv, st, err)
		},
		func(ctx context.Context, inv *investment.Investment, err error) {
			s.observe(ctx, result, inv, nil, err)
		},
	)

	result.FinishedAt = s.deps.Clock()
	s.deps.Recorder.BatchCompleted(ctx, result)
	if result.Unprocessed > 0 {
		log.Warn("Settlement batch interrupted",
			zap.Int("unprocessed", result.Unprocessed),
			zap.Error(ctx.Err()),
		)
	}
	log.Info("Settlement batch completed",
		zap.Int("candidates", result.Candidates),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int("unprocessed", result.Unprocessed),
		zap.String("credited", result.Credited.String()),
		zap.String("reinvested", result.Reinvested.String()),
		zap.Duration("duration", result.Duration()),
	)
	return result, nil
}

func (s *SettlementService) observe(ctx context.Context, result *BatchResult, inv *investment.Investment, st *Settlement, err error) {
	log := s.deps.Logger.With(zap.String("job", SettlementJobName), zap.String("investment_id", inv.ID.String()))
	if err == nil {
		result.record(OutcomeSucceeded, st.Decision.Credit, st.Decision.Reinvest)
		s.deps.Recorder.SettlementProcessed(ctx, OutcomeSucceeded, st.Decision.Branch.String(), "", st.Decision.Credit, st.Decision.Reinvest)
		return
	}

	class := Classify(err)
	if class == ClassConflict {
		log.Warn("Investment skipped", zap.Error(err))
		result.record(OutcomeSkipped, decimal.Zero, decimal.Zero)
		s.deps.Recorder.SettlementProcessed(ctx, OutcomeSkipped, "", class, decimal.Zero, decimal.Zero)
		return
	}

	log.Error("Investment settlement failed", zap.String("class", string(class)), zap.Error(err))
	result.record(OutcomeFailed, decimal.Zero, decimal.Zero)
	s.deps.Recorder.SettlementProcessed(ctx, OutcomeFailed, "", class, decimal.Zero, decimal.Zero)
	userID := inv.UserID
	s.deps.Alerter.Alert(ctx, Alert{
		UserID:  &userID,
		Message: fmt.Sprintf("Settlement of investment %s failed: %v", inv.ID, err),
		Channel: ChannelFailure,
		Tag:     SettlementJobName,
		Detail: map[string]any{
			"investment_id": inv.ID.String(),
			"class":         string(class),
		},
	})
}

// Settle settles one investment inside its own unit of work and, once
// committed, runs the best-effort follow ups.
func (s *SettlementService) Settle(ctx context.Context, candidate *investment.Investment) (*Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle",
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

	now := s.deps.Clock()
	var st *Settlement
	err = s.deps.UnitOfWork.Do(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		st, err = s.settleInTx(ctx, tx, candidate.ID, now)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBranch, st.Decision.Branch.String(),
		telemetry.SpanAttrAmount, st.FinalReturn.String(),
	)

	s.afterCommit(ctx, st)
	return st, nil
}

func (s *SettlementService) settleInTx(ctx context.Context, tx Tx, id uuid.UUID, now time.Time) (*Settlement, error) {
	inv, err := tx.Investments().FindByID(ctx, id)
	if err != nil {
		return nil, referenceError(err, "investment", id)
	}
	if _, err := tx.Plans().FindByID(ctx, inv.PlanID); err != nil {
		return nil, referenceError(err, "plan", inv.PlanID)
	}
	user, err := tx.Users().FindByID(ctx, inv.UserID)
	if err != nil {
		return nil, referenceError(err, "user", inv.UserID)
	}
	if _, err := tx.Wallets().FindByUserID(ctx, inv.UserID); err != nil {
		return nil, referenceError(err, "wallet", inv.UserID)
	}
	source, err := tx.Listings().FindByID(ctx, inv.ListingID)
	if err != nil {
		return nil, referenceError(err, "listing", inv.ListingID)
	}

	rate := investment.ResolveReturnRate(source, inv.Category)
	finalReturn, err := s.calc.FinalReturn(inv, rate)
	if err != nil {
		return nil, err
	}

	if !inv.EligibleForSettlement(now) {
		return nil, investment.ErrAlreadySettled
	}

	target, err := tx.Listings().FindActiveByHoldingPeriod(ctx, inv.Duration)
	if err != nil {
		return nil, referenceError(err, fmt.Sprintf("active listing with %d month holding period", inv.Duration), uuid.Nil)
	}

	decision, err := investment.DecideSettlement(inv, finalReturn)
	if err != nil {
		return nil, err
	}

	st := &Settlement{
		InvestmentID: inv.ID,
		User:         user,
		Listing:      source,
		Target:       target,
		Rate:         rate,
		FinalReturn:  finalReturn,
		Decision:     decision,
		SettledAt:    now,
	}

	if decision.Branch.Reinvests() {
		st.NewInvestment, err = s.reinvest(ctx, tx, inv, user, target, decision, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create reinvestment: %w", err)
		}
	}

	if decision.Credit.IsPositive() {
		res, err := tx.Ledger().Credit(ctx, account.CreditRequest{
			UserID:      inv.UserID,
			Amount:      decision.Credit,
			Currency:    s.cfg.Currency,
			GatewayTag:  settlementGatewayTag,
			Description: fmt.Sprintf("%s payout for investment in %s", decision.Branch, source.ProjectName),
			Reference:   SettlementReference(inv.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to credit wallet: %w", err)
		}
		if !res.Success {
			return nil, &CreditFailedError{Reference: SettlementReference(inv.ID), Message: res.Message}
		}
		st.Credit = &res
	}

	if err := inv.MarkSettled(now); err != nil {
		return nil, err
	}
	if err := tx.Investments().MarkSettled(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to mark investment settled: %w", err)
	}
	return st, nil
}

// reinvest creates the rollover investment on target and books it against
// the listing and the user.
func (s *SettlementService) reinvest(
	ctx context.Context,
	tx Tx,
	src *investment.Investment,
	user *account.User,
	target *listing.Listing,
	decision investment.Decision,
	now time.Time,
) (*investment.Investment, error) {
	tokens := decision.Reinvest.DivRound(s.cfg.TokenValue, tokenScale)
	inv, err := investment.NewReinvestment(investment.Reinvestment{
		Source:  src,
		Listing: target.ID,
		Amount:  decision.Reinvest,
		Tokens:  tokens,
		Months:  target.HoldingPeriod,
		Mode:    decision.Mode,
	}, now)
	if err != nil {
		return nil, err
	}

	added, err := tx.Listings().AddInvestor(ctx, target.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add investor to listing: %w", err)
	}
	if err := target.ApplyInvestment(listing.Allocation{Amount: decision.Reinvest, Tokens: tokens, NewInvestor: added}, now); err != nil {
		return nil, err
	}
	if err := tx.Listings().Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if err := tx.Investments().Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save investment: %w", err)
	}
	if err := tx.Users().IncrementInvested(ctx, user.ID, decision.Reinvest); err != nil {
		return nil, fmt.Errorf("failed to update user totals: %w", err)
	}
	user.RecordInvestment(decision.Reinvest, now)
	return inv, nil
}

// SettlementReference is the ledger idempotency key for an investment payout
func SettlementReference(id uuid.UUID) string {
	return "settlement:" + id.String() + ":payout"
}

// DividendReference is the ledger idempotency key for one monthly dividend
func DividendReference(id uuid.UUID, at time.Time) string {
	return "dividend:" + id.String() + ":" + investment.DividendPeriod(at)
}

const tokenScale = 4
