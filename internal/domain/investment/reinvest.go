package investment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReinvestMode is the investor's reinvestment preference at maturity
type ReinvestMode string

const (
	ReinvestNone       ReinvestMode = "none"
	ReinvestOnlyReturn ReinvestMode = "only_return"
	ReinvestOnlyAmount ReinvestMode = "only_amount"
	ReinvestBoth       ReinvestMode = "both"
)

// ParseReinvestMode maps a stored value onto the closed set of modes. An
// empty value means no reinvestment.
func ParseReinvestMode(s string) (ReinvestMode, error) {
	switch ReinvestMode(s) {
	case "", ReinvestNone:
		return ReinvestNone, nil
	case ReinvestOnlyReturn, ReinvestOnlyAmount, ReinvestBoth:
		return ReinvestMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReinvestMode, s)
}

// Branch is the settlement path chosen for a matured investment
type Branch int

const (
	BranchCashOut Branch = iota
	BranchOnlyReturn
	BranchOnlyAmount
	BranchBoth
)

func (b Branch) String() string {
	switch b {
	case BranchCashOut:
		return "cash_out"
	case BranchOnlyReturn:
		return "only_return"
	case BranchOnlyAmount:
		return "only_amount"
	case BranchBoth:
		return "both"
	}
	return "unknown"
}

// Reinvests reports whether the branch creates a new investment
func (b Branch) Reinvests() bool {
	return b != BranchCashOut
}

// Decision splits the settlement total between a new investment and a wallet
// credit. Reinvest + Credit always equals principal + final return.
type Decision struct {
	Branch   Branch
	Mode     ReinvestMode
	Reinvest decimal.Decimal
	Credit   decimal.Decimal
}

// DecideSettlement chooses the settlement branch for the investment given its
// already rounded final return.
func DecideSettlement(inv *Investment, finalReturn decimal.Decimal) (Decision, error) {
	if !inv.AutoReinvest {
		return Decision{Branch: BranchCashOut, Mode: ReinvestNone, Credit: inv.Amount.Add(finalReturn), Reinvest: decimal.Zero}, nil
	}
	switch inv.ReinvestMode {
	case ReinvestNone, "":
		return Decision{Branch: BranchCashOut, Mode: ReinvestNone, Credit: inv.Amount.Add(finalReturn), Reinvest: decimal.Zero}, nil
	case ReinvestOnlyReturn:
		return Decision{Branch: BranchOnlyReturn, Mode: ReinvestOnlyReturn, Reinvest: finalReturn, Credit: inv.Amount}, nil
	case ReinvestOnlyAmount:
		return Decision{Branch: BranchOnlyAmount, Mode: ReinvestOnlyAmount, Reinvest: inv.Amount, Credit: finalReturn}, nil
	case ReinvestBoth:
		return Decision{Branch: BranchBoth, Mode: ReinvestBoth, Reinvest: inv.Amount.Add(finalReturn), Credit: decimal.Zero}, nil
	}
	return Decision{}, fmt.Errorf("%w: %q", ErrUnknownReinvestMode, inv.ReinvestMode)
}
