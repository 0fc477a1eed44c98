package payout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("zero values are filled", func(t *testing.T) {
		cfg := Config{}.withDefaults()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		cfg := Config{
			MoneyScale:  4,
			TokenValue:  decimal.NewFromInt(250),
			Currency:    "EUR",
			Concurrency: 8,
			LockTTL:     time.Minute,
		}.withDefaults()
		assert.Equal(t, int32(4), cfg.MoneyScale)
		assert.True(t, decimal.NewFromInt(250).Equal(cfg.TokenValue))
		assert.Equal(t, "EUR", cfg.Currency)
		assert.Equal(t, 8, cfg.Concurrency)
		assert.Equal(t, time.Minute, cfg.LockTTL)
		assert.Equal(t, 500, cfg.BatchSize)
	})
}
