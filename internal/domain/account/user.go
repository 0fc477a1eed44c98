// Package account holds the investor-facing records the payout worker reads
// or credits: users, investment plans and wallets.
package account

import (
	"strings"
	"time"

	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the investor. The payout worker only mutates TotalAmountInvested.
type User struct {
	shared.BaseEntity
	FirstName           string
	LastName            string
	Email               string
	TotalAmountInvested decimal.Decimal
}

// FullName returns the display name used in documents and emails
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RecordInvestment adds amount to the user's lifetime invested total
func (u *User) RecordInvestment(amount decimal.Decimal, now time.Time) {
	u.TotalAmountInvested = u.TotalAmountInvested.Add(amount)
	u.Touch(now)
}

// Plan groups investments of a single user. It is read-only here.
type Plan struct {
	shared.BaseEntity
	UserID uuid.UUID
	Name   string
}
