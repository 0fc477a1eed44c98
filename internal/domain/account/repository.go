package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines user store operations
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// IncrementInvested atomically adds amount to total_amount_invested.
	IncrementInvested(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// PlanRepository defines plan store operations
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
}

// WalletRepository defines wallet store operations
type WalletRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
}
