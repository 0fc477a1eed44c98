package shared

import "github.com/shopspring/decimal"

// DefaultMoneyScale is the number of decimal places money amounts are rounded to.
const DefaultMoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half-away-from-zero to the given scale.
func RoundMoney(amount decimal.Decimal, scale int32) decimal.Decimal {
	return amount.Round(scale)
}

// Percent returns rate% of amount without rounding.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}
