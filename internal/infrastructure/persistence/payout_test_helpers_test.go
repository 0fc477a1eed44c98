package persistence

import (
	"testing"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func setupPayoutTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	// one connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, balance decimal.Decimal) (*account.User, *account.Wallet) {
	user := &account.User{
		BaseEntity:          shared.NewBaseEntity(testNow),
		FirstName:           "Ada",
		LastName:            "Obi",
		Email:               uuid.NewString() + "@example.com",
		TotalAmountInvested: decimal.NewFromInt(5000),
	}
	require.NoError(t, db.Create(models.UserModelFromDomain(user)).Error)

	wallet := &account.Wallet{
		BaseEntity: shared.NewBaseEntity(testNow),
		UserID:     user.ID,
		Currency:   account.DefaultCurrency,
		Balance:    balance,
	}
	require.NoError(t, db.Create(models.WalletModelFromDomain(wallet)).Error)
	return user, wallet
}

func seedPlan(t *testing.T, db *gorm.DB, user *account.User) *account.Plan {
	plan := &account.Plan{
		BaseEntity: shared.NewBaseEntity(testNow),
		UserID:     user.ID,
		Name:       "Growth",
	}
	require.NoError(t, db.Create(models.PlanModelFromDomain(plan)).Error)
	return plan
}

func seedListing(t *testing.T, db *gorm.DB, name string, status listing.Status, months int, createdAt time.Time) *listing.Listing {
	l := &listing.Listing{
		BaseEntity:      shared.NewBaseEntity(createdAt),
		ProjectName:     name,
		Status:          status,
		FixedReturns:    decimal.NewNullDecimal(decimal.NewFromInt(20)),
		FlexibleReturns: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Returns:         decimal.NewNullDecimal(decimal.NewFromInt(15)),
		HoldingPeriod:   months,
		AvailableTokens: decimal.NewFromInt(100),
		TokensSold:      decimal.Zero,
		AmountRaised:    decimal.Zero,
	}
	require.NoError(t, db.Create(models.ListingModelFromDomain(l)).Error)
	return l
}

func seedInvestment(t *testing.T, db *gorm.DB, mutate func(inv *investment.Investment)) *investment.Investment {
	inv := &investment.Investment{
		BaseEntity:   shared.NewBaseEntity(testNow.AddDate(-1, 0, 0)),
		UserID:       uuid.New(),
		PlanID:       uuid.New(),
		ListingID:    uuid.New(),
		Amount:       decimal.NewFromInt(5000),
		Tokens:       decimal.NewFromInt(5),
		Category:     investment.CategoryFixed,
		Duration:     10,
		StartDate:    testNow.AddDate(0, -10, -1),
		EndDate:      testNow.AddDate(0, 0, -1),
		Status:       investment.StatusActive,
		Form:         investment.FormNew,
		ReinvestMode: investment.ReinvestNone,
	}
	if mutate != nil {
		mutate(inv)
	}
	require.NoError(t, db.Create(models.InvestmentModelFromDomain(inv)).Error)
	return inv
}
