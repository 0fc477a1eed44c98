package payout

import (
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Config tunes both payout engines. Zero fields take the DefaultConfig value,
// so a zero MoneyScale means unset; config loading rejects an explicit zero.
type Config struct {
	MoneyScale            int32
	TokenValue            decimal.Decimal
	Currency              string
	BatchSize             int
	Concurrency           int
	LockTTL               time.Duration
	PostCommitTimeout     time.Duration
	SeedDividendFromStart bool
	AppBaseURL            string
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		MoneyScale:        shared.DefaultMoneyScale,
		TokenValue:        decimal.NewFromInt(1000),
		Currency:          account.DefaultCurrency,
		BatchSize:         500,
		Concurrency:       1,
		LockTTL:           2 * time.Minute,
		PostCommitTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MoneyScale <= 0 {
		c.MoneyScale = d.MoneyScale
	}
	if !c.TokenValue.IsPositive() {
		c.TokenValue = d.TokenValue
	}
	if c.Currency == "" {
		c.Currency = d.Currency
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.PostCommitTimeout <= 0 {
		c.PostCommitTimeout = d.PostCommitTimeout
	}
	return c
}
