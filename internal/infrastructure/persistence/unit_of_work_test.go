package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/infrastructure/cache"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []payout.Alert
}

func (a *recordingAlerter) Alert(_ context.Context, alert payout.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *recordingAlerter) count(c payout.Channel) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, alert := range a.alerts {
		if alert.Channel == c {
			n++
		}
	}
	return n
}

func TestGormUnitOfWork_RollsBackOnError(t *testing.T) {
	db := setupPayoutTestDB(t)
	uow := NewGormUnitOfWork(db)
	ctx := context.Background()

	user, _ := seedUser(t, db, decimal.NewFromInt(100))

	err := uow.Do(ctx, func(ctx context.Context, tx payout.Tx) error {
		res, err := tx.Ledger().Credit(ctx, account.CreditRequest{
			UserID:     user.ID,
			Amount:     decimal.NewFromInt(50),
			GatewayTag: "investment-payout",
			Reference:  "settlement:rollback:payout",
		})
		require.NoError(t, err)
		require.True(t, res.Success)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	wallet, err := NewGormWalletRepository(db).FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(wallet.Balance))

	var count int64
	require.NoError(t, db.Model(&models.WalletTransactionModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func newSqliteSettlement(t *testing.T) (*payout.SettlementService, *recordingAlerter, *gormFixture) {
	db := setupPayoutTestDB(t)
	fx := &gormFixture{}
	fx.user, _ = seedUser(t, db, decimal.Zero)
	fx.plan = seedPlan(t, db, fx.user)
	fx.source = seedListing(t, db, "Lekki Gardens", listing.StatusInactive, 10, testNow.AddDate(-1, 0, 0))
	fx.target = seedListing(t, db, "Marina Heights", listing.StatusActive, 10, testNow.AddDate(0, -1, 0))
	fx.db = db

	alerter := &recordingAlerter{}
	svc := payout.NewSettlementService(payout.DefaultConfig(), payout.Dependencies{
		Investments: NewGormInvestmentRepository(db),
		UnitOfWork:  NewGormUnitOfWork(db),
		Locker:      cache.NewInMemoryLocker(),
		Alerter:     alerter,
		Logger:      zaptest.NewLogger(t),
		Clock:       func() time.Time { return testNow },
	})
	return svc, alerter, fx
}

type gormFixture struct {
	db     *gorm.DB
	user   *account.User
	plan   *account.Plan
	source *listing.Listing
	target *listing.Listing
}

func (fx *gormFixture) investment(t *testing.T, mutate func(inv *investment.Investment)) *investment.Investment {
	return seedInvestment(t, fx.db, func(inv *investment.Investment) {
		inv.UserID = fx.user.ID
		inv.PlanID = fx.plan.ID
		inv.ListingID = fx.source.ID
		if mutate != nil {
			mutate(inv)
		}
	})
}

func TestSettlement_OnSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed cash out credits principal and return once", func(t *testing.T) {
		svc, alerter, fx := newSqliteSettlement(t)
		inv := fx.investment(t, nil)

		result, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		assert.True(t, decimal.NewFromInt(6000).Equal(result.Credited))

		wallet, err := NewGormWalletRepository(fx.db).FindByUserID(ctx, fx.user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(6000).Equal(wallet.Balance))

		settled, err := NewGormInvestmentRepository(fx.db).FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, settled.PaidOut)
		assert.Equal(t, investment.StatusMatured, settled.Status)
		assert.Equal(t, 1, alerter.count(payout.ChannelSuccess))

		again, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, again.Candidates)

		wallet, err = NewGormWalletRepository(fx.db).FindByUserID(ctx, fx.user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(6000).Equal(wallet.Balance))
	})

	t.Run("flexible only_amount reinvests principal and credits the return", func(t *testing.T) {
		svc, _, fx := newSqliteSettlement(t)
		inv := fx.investment(t, func(inv *investment.Investment) {
			inv.Category = investment.CategoryFlexible
			inv.AutoReinvest = true
			inv.ReinvestMode = investment.ReinvestOnlyAmount
		})

		st, err := svc.Settle(ctx, inv)
		require.NoError(t, err)
		require.NotNil(t, st.NewInvestment)
		assert.Equal(t, investment.BranchOnlyAmount, st.Decision.Branch)

		created, err := NewGormInvestmentRepository(fx.db).FindByID(ctx, st.NewInvestment.ID)
		require.NoError(t, err)
		assert.Equal(t, investment.FormReinvestment, created.Form)
		assert.True(t, decimal.NewFromInt(5000).Equal(created.Amount))
		assert.True(t, decimal.NewFromInt(5).Equal(created.Tokens))
		require.NotNil(t, created.ReinvestedFrom)
		assert.Equal(t, inv.ID, *created.ReinvestedFrom)

		target, err := NewGormListingRepository(fx.db).FindByID(ctx, fx.target.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(95).Equal(target.AvailableTokens))
		assert.Equal(t, int64(1), target.InvestorCount)

		user, err := NewGormUserRepository(fx.db).FindByID(ctx, fx.user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(10000).Equal(user.TotalAmountInvested))

		// only_amount credits the 10% flexible return spread over the term
		wallet, err := NewGormWalletRepository(fx.db).FindByUserID(ctx, fx.user.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50).Equal(wallet.Balance))
	})
}
