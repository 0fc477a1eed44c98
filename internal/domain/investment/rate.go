package investment

import (
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// ResolveReturnRate returns the percentage return that applies to an
// investment of the given category on l. The category specific rate wins
// when set and non-zero, the generic listing rate is the fallback, and an
// absent rate resolves to zero.
func ResolveReturnRate(l *listing.Listing, c Category) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	var specific decimal.NullDecimal
	switch c {
	case CategoryFixed:
		specific = l.FixedReturns
	case CategoryFlexible:
		specific = l.FlexibleReturns
	default:
		return decimal.Zero
	}
	if specific.Valid && !specific.Decimal.IsZero() {
		return specific.Decimal
	}
	if l.Returns.Valid {
		return l.Returns.Decimal
	}
	return decimal.Zero
}
