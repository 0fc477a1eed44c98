// Package investment models a user's capital commitment into a listing and the
// pure rules the payout engines apply to it.
package investment

import (
	"time"

	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category selects how returns are paid
type Category string

const (
	CategoryFixed    Category = "fixed"
	CategoryFlexible Category = "flexible"
)

// Status is the investment lifecycle status
type Status string

const (
	StatusActive  Status = "active"
	StatusMatured Status = "matured"
)

// Form records how an investment came into being
type Form string

const (
	FormNew          Form = "new-investment"
	FormReinvestment Form = "re-investment"
)

// Investment is one capital commitment by a user into one listing
type Investment struct {
	shared.BaseEntity
	UserID    uuid.UUID
	PlanID    uuid.UUID
	ListingID uuid.UUID
	Amount    decimal.Decimal
	Tokens    decimal.Decimal
	Category  Category
	Duration  int // months
	StartDate time.Time
	EndDate   time.Time
	Status    Status
	Form      Form

	PaidOut     bool
	PaidOutDate *time.Time

	AutoReinvest bool
	ReinvestMode ReinvestMode

	DividendsCount    int
	LastDividendsDate *time.Time
	NextDividendsDate *time.Time

	ReinvestedFrom   *uuid.UUID
	IsAutoReinvested bool
	ReinvestedAs     ReinvestMode
}

// EligibleForSettlement reports whether the investment has matured and has
// not been paid out yet.
func (i *Investment) EligibleForSettlement(now time.Time) bool {
	return i.Status == StatusActive && !i.PaidOut && i.EndDate.Before(now)
}

// MarkSettled moves the investment to its terminal state. It is the only way
// PaidOut becomes true, which keeps PaidOut implying StatusMatured.
func (i *Investment) MarkSettled(now time.Time) error {
	if !i.EligibleForSettlement(now) {
		return ErrAlreadySettled
	}
	i.Status = StatusMatured
	i.PaidOut = true
	paidAt := now
	i.PaidOutDate = &paidAt
	i.Touch(now)
	return nil
}

// DividendDue evaluates the monthly dividend guard at now. When
// seedFromStart is false a missing LastDividendsDate is treated as now, so a
// flexible investment never receives its first dividend through this guard.
func (i *Investment) DividendDue(now time.Time, seedFromStart bool) bool {
	if i.Category != CategoryFlexible || i.Status != StatusActive || i.PaidOut {
		return false
	}
	if i.DividendsCount >= i.Duration {
		return false
	}
	if now.Before(i.StartDate) || now.After(i.EndDate) {
		return false
	}

	last := now
	switch {
	case i.LastDividendsDate != nil:
		last = *i.LastDividendsDate
	case seedFromStart:
		last = i.StartDate
	}
	if !now.After(last) {
		return false
	}
	return monthIndex(now) > monthIndex(last)
}

// RecordDividend books one dividend tick at now
func (i *Investment) RecordDividend(now time.Time) {
	i.DividendsCount++
	tick := now
	next := now.AddDate(0, 1, 0)
	i.LastDividendsDate = &tick
	i.NextDividendsDate = &next
	i.Touch(now)
}

// DividendPeriod is the calendar month a dividend tick at t belongs to
func DividendPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func monthIndex(t time.Time) int {
	u := t.UTC()
	return u.Year()*12 + int(u.Month())
}

// Reinvestment describes a new investment funded by a matured one
type Reinvestment struct {
	Source  *Investment
	Listing uuid.UUID
	Amount  decimal.Decimal
	Tokens  decimal.Decimal
	Months  int
	Mode    ReinvestMode
}

// NewReinvestment builds the investment that rolls capital over from r.Source.
// The new investment inherits owner, plan, category and reinvestment
// preference, and starts its own dividend clock at now.
func NewReinvestment(r Reinvestment, now time.Time) (*Investment, error) {
	if r.Months <= 0 {
		return nil, ErrInvalidDuration
	}
	if !r.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reinvestment amount must be positive")
	}
	src := r.Source
	sourceID := src.ID
	start := now
	next := now.AddDate(0, 1, 0)
	return &Investment{
		BaseEntity:        shared.NewBaseEntity(now),
		UserID:            src.UserID,
		PlanID:            src.PlanID,
		ListingID:         r.Listing,
		Amount:            r.Amount,
		Tokens:            r.Tokens,
		Category:          src.Category,
		Duration:          r.Months,
		StartDate:         start,
		EndDate:           start.AddDate(0, r.Months, 0),
		Status:            StatusActive,
		Form:              FormReinvestment,
		AutoReinvest:      src.AutoReinvest,
		ReinvestMode:      src.ReinvestMode,
		NextDividendsDate: &next,
		ReinvestedFrom:    &sourceID,
		IsAutoReinvested:  true,
		ReinvestedAs:      r.Mode,
	}, nil
}
