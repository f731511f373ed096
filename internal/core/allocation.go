package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	titheRate = decimal.RequireFromString("0.10")
	// wantsRate and savingsRate each take half of what remains after tithe.
	wantsRate   = decimal.RequireFromString("0.9").Mul(decimal.RequireFromString("0.5"))
	savingsRate = decimal.RequireFromString("0.9").Mul(decimal.RequireFromString("0.5"))
)

// Allocation is the three-way split of one income amount.
type Allocation struct {
	Tithe   decimal.Decimal
	Wants   decimal.Decimal
	Savings decimal.Decimal
}

// Allocate splits a validated positive amount according to its
// classification. Each bucket of a Regular split is rounded to cents on its
// own, so the sum may differ from amount by one cent; the residue is kept.
//
// Allocate panics on a non-positive amount or an unknown classification:
// callers validate input before allocating.
func Allocate(amount decimal.Decimal, c Classification) Allocation {
	if !amount.IsPositive() {
		panic(fmt.Sprintf("core: allocate called with non-positive amount %s", amount))
	}
	switch c {
	case Regular:
		return Allocation{
			Tithe:   Round2(amount.Mul(titheRate)),
			Wants:   Round2(amount.Mul(wantsRate)),
			Savings: Round2(amount.Mul(savingsRate)),
		}
	case Supplemental:
		return Allocation{
			Tithe:   decimal.Zero,
			Wants:   amount,
			Savings: decimal.Zero,
		}
	}
	panic(fmt.Sprintf("core: allocate called with unknown classification %q", c))
}

// Preview returns the projected split for a form value that may still be
// incomplete. ok is false when nothing can be projected yet.
func Preview(raw string, c Classification) (Allocation, bool) {
	amount, err := ParseAmount(raw)
	if err != nil || c.Validate() != nil {
		return Allocation{}, false
	}
	return Allocate(amount, c), true
}
