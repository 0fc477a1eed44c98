package investment

import (
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Calculator computes payout amounts rounded to a fixed money scale
type Calculator struct {
	Scale int32
}

// NewCalculator returns a calculator rounding to scale decimal places
func NewCalculator(scale int32) Calculator {
	return Calculator{Scale: scale}
}

// FinalReturn is the return paid at maturity. Fixed investments earn the
// whole rate on the principal; flexible investments earn the rate spread
// evenly over the duration since interim dividends already paid the rest.
func (c Calculator) FinalReturn(inv *Investment, rate decimal.Decimal) (decimal.Decimal, error) {
	if inv.Duration <= 0 {
		return decimal.Zero, ErrInvalidDuration
	}
	gross := shared.Percent(inv.Amount, rate)
	switch inv.Category {
	case CategoryFixed:
		return shared.RoundMoney(gross, c.Scale), nil
	case CategoryFlexible:
		return shared.RoundMoney(gross.Div(decimal.NewFromInt(int64(inv.Duration))), c.Scale), nil
	}
	return decimal.Zero, ErrUnknownCategory
}

// MonthlyDividend is the interim payout for a flexible investment: a
// proportional return slice plus straight-line principal amortisation.
func (c Calculator) MonthlyDividend(inv *Investment, rate decimal.Decimal) (decimal.Decimal, error) {
	if inv.Duration <= 0 {
		return decimal.Zero, ErrInvalidDuration
	}
	slice := shared.Percent(inv.Amount, rate)
	amortised := inv.Amount.Div(decimal.NewFromInt(int64(inv.Duration)))
	return shared.RoundMoney(slice.Add(amortised), c.Scale), nil
}
