package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are the running figures derived from the full income and expense
// collections. WantsBalance is Wants minus Spent and may be negative.
type Totals struct {
	Tithe             decimal.Decimal `json:"tithe"`
	Savings           decimal.Decimal `json:"savings"`
	SavingsInvestment decimal.Decimal `json:"savInv"`
	SavingsEmergency  decimal.Decimal `json:"savEm"`
	Wants             decimal.Decimal `json:"wants"`
	Spent             decimal.Decimal `json:"spent"`
	WantsBalance      decimal.Decimal `json:"wantsBalance"`
}

// CategoryAmount represents an amount aggregated by expense category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ComputeTotals sums both collections from scratch. Missing (zero) fields
// contribute nothing, and savings split by tag only counts the named tags.
func ComputeTotals(income []IncomeEntry, expenses []ExpenseEntry) Totals {
	var t Totals
	for _, e := range income {
		t.Tithe = t.Tithe.Add(e.Tithe)
		t.Savings = t.Savings.Add(e.Savings)
		t.Wants = t.Wants.Add(e.Wants)
		switch e.SavingsTag {
		case SavingsInvestment:
			t.SavingsInvestment = t.SavingsInvestment.Add(e.Savings)
		case SavingsEmergency:
			t.SavingsEmergency = t.SavingsEmergency.Add(e.Savings)
		}
	}
	for _, e := range expenses {
		t.Spent = t.Spent.Add(e.Amount)
	}
	t.WantsBalance = t.Wants.Sub(t.Spent)
	return t
}

// SpentPercent is the share of wants already spent, capped at 100. It is
// zero when nothing has been allocated to wants.
func SpentPercent(t Totals) decimal.Decimal {
	if !t.Wants.IsPositive() {
		return decimal.Zero
	}
	pct := t.Spent.Div(t.Wants).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// CategoryBreakdown sums expenses per category, largest first. Ties keep
// the category display order.
func CategoryBreakdown(expenses []ExpenseEntry) []CategoryAmount {
	sums := make(map[Category]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	out := make([]CategoryAmount, 0, len(sums))
	for _, c := range Categories() {
		if amount, ok := sums[c]; ok {
			out = append(out, CategoryAmount{Category: c, Amount: amount})
			delete(sums, c)
		}
	}
	// Categories outside the known set still show up, after the known ones.
	var extra []Category
	for c := range sums {
		extra = append(extra, c)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, c := range extra {
		out = append(out, CategoryAmount{Category: c, Amount: sums[c]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}
