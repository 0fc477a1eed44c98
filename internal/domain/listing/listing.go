// Package listing models the tokenised property offerings investors buy into.
package listing

import (
	"time"

	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a listing
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusSoldOut  Status = "sold_out"
)

// ErrInsufficientTokens is returned when a listing cannot absorb an allocation
var ErrInsufficientTokens = shared.NewDomainError("INSUFFICIENT_TOKENS", "Listing does not have enough available tokens")

// Listing is a property offering. Rates are percentages and may be unset.
type Listing struct {
	shared.BaseEntity
	ProjectName     string
	Status          Status
	FixedReturns    decimal.NullDecimal
	FlexibleReturns decimal.NullDecimal
	Returns         decimal.NullDecimal
	HoldingPeriod   int // months
	AvailableTokens decimal.Decimal
	TokensSold      decimal.Decimal
	AmountRaised    decimal.Decimal
	InvestorCount   int64
	TicketCount     int64
}

// Allocation is the effect of placing one investment ticket on a listing.
type Allocation struct {
	Amount      decimal.Decimal
	Tokens      decimal.Decimal
	NewInvestor bool
}

// ApplyInvestment records a new ticket against the listing. Tokens are
// decremented from the available supply; the investor count only grows when
// the investor was not already a member of the listing's investor set.
func (l *Listing) ApplyInvestment(a Allocation, now time.Time) error {
	if a.Tokens.IsNegative() || a.Amount.IsNegative() {
		return shared.ErrInvalidInput
	}
	if l.AvailableTokens.LessThan(a.Tokens) {
		return ErrInsufficientTokens
	}
	l.AvailableTokens = l.AvailableTokens.Sub(a.Tokens)
	l.TokensSold = l.TokensSold.Add(a.Tokens)
	l.AmountRaised = l.AmountRaised.Add(a.Amount)
	l.TicketCount++
	if a.NewInvestor {
		l.InvestorCount++
	}
	if l.AvailableTokens.IsZero() {
		l.Status = StatusSoldOut
	}
	l.Touch(now)
	return nil
}
