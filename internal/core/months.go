package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthGroup holds the entries of one calendar month. Both slices are
// always non-nil, even when the month only has entries of one kind.
type MonthGroup struct {
	Key      string
	Income   []IncomeEntry
	Expenses []ExpenseEntry
}

// Label renders the key for people, e.g. "January 2024".
func (g MonthGroup) Label() string {
	return MonthKeyLabel(g.Key)
}

func (g MonthGroup) IncomeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range g.Income {
		sum = sum.Add(e.Amount)
	}
	return sum
}

func (g MonthGroup) SpentTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range g.Expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// GroupByMonth buckets entries by the month of their calendar date, newest
// month first. Entries keep their input order inside a group.
func GroupByMonth(income []IncomeEntry, expenses []ExpenseEntry) []MonthGroup {
	groups := make(map[string]*MonthGroup)
	get := func(key string) *MonthGroup {
		g, ok := groups[key]
		if !ok {
			g = &MonthGroup{Key: key, Income: []IncomeEntry{}, Expenses: []ExpenseEntry{}}
			groups[key] = g
		}
		return g
	}

	for _, e := range income {
		g := get(e.Date.MonthKey())
		g.Income = append(g.Income, e)
	}
	for _, e := range expenses {
		g := get(e.Date.MonthKey())
		g.Expenses = append(g.Expenses, e)
	}

	out := make([]MonthGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out
}

// SortIncomeByDate orders entries newest first in place; same-day entries
// keep their relative order.
func SortIncomeByDate(entries []IncomeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[j].Date.Before(entries[i].Date)
	})
}

func SortExpensesByDate(entries []ExpenseEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[j].Date.Before(entries[i].Date)
	})
}
