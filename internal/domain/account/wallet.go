package account

import (
	"context"

	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the settlement currency for wallet credits
const DefaultCurrency = "USD"

// Wallet is the user's cash balance. Its balance is only ever moved through
// a WalletLedger so every movement has a matching ledger row.
type Wallet struct {
	shared.BaseEntity
	UserID   uuid.UUID
	Currency string
	Balance  decimal.Decimal
}

// CreditRequest asks the ledger to credit a user's wallet. Reference is the
// idempotency key: replaying a request with the same reference never moves
// money twice.
type CreditRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	GatewayTag  string
	Description string
	Reference   string
}

// CreditResult reports the outcome of a credit. Success=false with a Message
// is a business decline, distinct from an infrastructure error.
type CreditResult struct {
	Success       bool
	Message       string
	TransactionID uuid.UUID
	BalanceAfter  decimal.Decimal
	Replayed      bool
}

// WalletLedger credits wallets and records the movement atomically
type WalletLedger interface {
	Credit(ctx context.Context, req CreditRequest) (CreditResult, error)
}
