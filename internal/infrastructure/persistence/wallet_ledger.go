package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWalletLedger implements account.WalletLedger. Every credit moves the
// wallet balance and writes its wallet_transactions row in one transaction.
type GormWalletLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormWalletLedger creates a new GormWalletLedger
func NewGormWalletLedger(db *gorm.DB) *GormWalletLedger {
	return &GormWalletLedger{db: db, now: time.Now}
}

// Credit adds req.Amount to the user's wallet. A request whose reference was
// already booked returns the original transaction with Replayed set.
func (l *GormWalletLedger) Credit(ctx context.Context, req account.CreditRequest) (account.CreditResult, error) {
	if !req.Amount.IsPositive() {
		return account.CreditResult{Message: "credit amount must be positive"}, nil
	}
	if req.Reference == "" {
		return account.CreditResult{Message: "credit reference is required"}, nil
	}

	var result account.CreditResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.WalletTransactionModel
		err := tx.Where("reference = ?", req.Reference).First(&existing).Error
		if err == nil {
			result = account.CreditResult{
				Success:       true,
				Message:       "already credited",
				TransactionID: existing.ID,
				BalanceAfter:  existing.BalanceAfter,
				Replayed:      true,
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up credit reference: %w", err)
		}

		var wallet models.WalletModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", req.UserID).
			First(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = account.CreditResult{Message: "wallet not found"}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		currency := req.Currency
		if currency == "" {
			currency = wallet.Currency
		}
		if currency != wallet.Currency {
			result = account.CreditResult{
				Message: fmt.Sprintf("wallet currency %s does not match %s", wallet.Currency, currency),
			}
			return nil
		}

		now := l.now().UTC()
		balanceAfter := wallet.Balance.Add(req.Amount)
		if err := tx.Model(&models.WalletModel{}).
			Where("id = ?", wallet.ID).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", req.Amount),
				"updated_at": now,
				"version":    gorm.Expr("version + 1"),
			}).Error; err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}

		entry := models.WalletTransactionModel{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			UserID:        req.UserID,
			Amount:        req.Amount,
			Currency:      currency,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  balanceAfter,
			GatewayTag:    req.GatewayTag,
			Description:   req.Description,
			Reference:     req.Reference,
			CreatedAt:     now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record wallet transaction: %w", err)
		}

		result = account.CreditResult{
			Success:       true,
			TransactionID: entry.ID,
			BalanceAfter:  balanceAfter,
		}
		return nil
	})
	if err != nil {
		return account.CreditResult{}, err
	}
	return result, nil
}
