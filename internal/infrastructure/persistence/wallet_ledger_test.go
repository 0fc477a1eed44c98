package persistence

import (
	"context"
	"testing"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormWalletLedger_Credit(t *testing.T) {
	db := setupPayoutTestDB(t)
	ledger := NewGormWalletLedger(db)
	wallets := NewGormWalletRepository(db)
	ctx := context.Background()

	user, _ := seedUser(t, db, decimal.NewFromInt(100))
	req := account.CreditRequest{
		UserID:      user.ID,
		Amount:      decimal.NewFromInt(1200),
		Currency:    account.DefaultCurrency,
		GatewayTag:  "investment-payout",
		Description: "Investment payout",
		Reference:   "settlement:" + uuid.NewString() + ":payout",
	}

	t.Run("credits the wallet and writes a ledger row", func(t *testing.T) {
		result, err := ledger.Credit(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Replayed)
		assert.True(t, decimal.NewFromInt(1300).Equal(result.BalanceAfter))

		wallet, err := wallets.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1300).Equal(wallet.Balance))

		var entry models.WalletTransactionModel
		require.NoError(t, db.Where("reference = ?", req.Reference).First(&entry).Error)
		assert.Equal(t, result.TransactionID, entry.ID)
		assert.True(t, decimal.NewFromInt(100).Equal(entry.BalanceBefore))
		assert.Equal(t, "investment-payout", entry.GatewayTag)
	})

	t.Run("replaying the reference does not move money", func(t *testing.T) {
		result, err := ledger.Credit(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.Replayed)

		wallet, err := wallets.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1300).Equal(wallet.Balance))

		var count int64
		require.NoError(t, db.Model(&models.WalletTransactionModel{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("declines without a wallet", func(t *testing.T) {
		missing := req
		missing.UserID = uuid.New()
		missing.Reference = "settlement:" + uuid.NewString() + ":payout"
		result, err := ledger.Credit(ctx, missing)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "wallet not found", result.Message)
	})

	t.Run("declines non-positive amounts", func(t *testing.T) {
		zero := req
		zero.Amount = decimal.Zero
		zero.Reference = "settlement:" + uuid.NewString() + ":payout"
		result, err := ledger.Credit(ctx, zero)
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("declines a currency mismatch", func(t *testing.T) {
		other := req
		other.Currency = "EUR"
		other.Reference = "settlement:" + uuid.NewString() + ":payout"
		result, err := ledger.Credit(ctx, other)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "EUR")
	})
}
