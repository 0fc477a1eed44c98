package persistence

import (
	"context"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"gorm.io/gorm"
)

// GormUnitOfWork implements payout.UnitOfWork on a GORM transaction
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn in a transaction. Repositories handed to fn share that transaction.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx payout.Tx) error) error {
	return u.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &gormTx{db: db})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Investments() investment.Repository { return NewGormInvestmentRepository(t.db) }

func (t *gormTx) Listings() listing.Repository { return NewGormListingRepository(t.db) }

func (t *gormTx) Users() account.UserRepository { return NewGormUserRepository(t.db) }

func (t *gormTx) Plans() account.PlanRepository { return NewGormPlanRepository(t.db) }

func (t *gormTx) Wallets() account.WalletRepository { return NewGormWalletRepository(t.db) }

func (t *gormTx) Ledger() account.WalletLedger { return NewGormWalletLedger(t.db) }

var (
	_ investment.Repository    = (*GormInvestmentRepository)(nil)
	_ listing.Repository       = (*GormListingRepository)(nil)
	_ account.UserRepository   = (*GormUserRepository)(nil)
	_ account.PlanRepository   = (*GormPlanRepository)(nil)
	_ account.WalletRepository = (*GormWalletRepository)(nil)
	_ account.WalletLedger     = (*GormWalletLedger)(nil)
	_ payout.UnitOfWork        = (*GormUnitOfWork)(nil)
)
