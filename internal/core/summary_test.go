package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustIncome(t *testing.T, date, amount string, c Classification, tag SavingsTag) IncomeEntry {
	t.Helper()
	d, err := ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewIncomeEntry("u1", d, dec(amount), c, tag)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func mustExpense(t *testing.T, date, name, amount string, c Category) ExpenseEntry {
	t.Helper()
	d, err := ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewExpenseEntry("u1", d, name, dec(amount), c)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func assertTotals(t *testing.T, got Totals, want map[string]string) {
	t.Helper()
	fields := map[string]decimal.Decimal{
		"tithe":        got.Tithe,
		"savings":      got.Savings,
		"savInv":       got.SavingsInvestment,
		"savEm":        got.SavingsEmergency,
		"wants":        got.Wants,
		"spent":        got.Spent,
		"wantsBalance": got.WantsBalance,
	}
	for name, w := range want {
		if !fields[name].Equal(dec(w)) {
			t.Errorf("%s = %s, want %s", name, fields[name], w)
		}
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	assertTotals(t, ComputeTotals(nil, nil), map[string]string{
		"tithe": "0", "savings": "0", "savInv": "0", "savEm": "0",
		"wants": "0", "spent": "0", "wantsBalance": "0",
	})
}

func TestComputeTotalsTwoIncomesOneExpense(t *testing.T) {
	income := []IncomeEntry{
		mustIncome(t, "2024-01-05", "1000", Regular, SavingsInvestment),
		mustIncome(t, "2024-01-20", "500", Regular, SavingsEmergency),
	}
	expenses := []ExpenseEntry{mustExpense(t, "2024-01-21", "rent share", "300", CategoryBills)}

	assertTotals(t, ComputeTotals(income, expenses), map[string]string{
		"tithe":        "150",
		"savings":      "675",
		"savInv":       "450",
		"savEm":        "225",
		"wants":        "675",
		"spent":        "300",
		"wantsBalance": "375",
	})
}

func TestComputeTotalsNegativeBalanceAndUntagged(t *testing.T) {
	income := []IncomeEntry{
		mustIncome(t, "2024-01-05", "200", Supplemental, SavingsNone),
		// an entry with an unknown tag still counts toward total savings
		{Date: NewDate(2024, 1, 6), Amount: dec("10"), Classification: Regular, SavingsTag: SavingsTag("Other"), Savings: dec("4.5")},
		// missing numeric fields contribute zero
		{Date: NewDate(2024, 1, 7), Classification: Regular, SavingsTag: SavingsInvestment},
	}
	expenses := []ExpenseEntry{mustExpense(t, "2024-01-08", "tv", "250", CategoryShopping)}

	assertTotals(t, ComputeTotals(income, expenses), map[string]string{
		"savings":      "4.5",
		"savInv":       "0",
		"savEm":        "0",
		"wants":        "200",
		"spent":        "250",
		"wantsBalance": "-50",
	})
}

func TestComputeTotalsOrderInvariant(t *testing.T) {
	income := []IncomeEntry{
		mustIncome(t, "2024-01-05", "1000", Regular, SavingsInvestment),
		mustIncome(t, "2024-02-05", "123.45", Regular, SavingsEmergency),
		mustIncome(t, "2024-03-05", "77.7", Supplemental, SavingsNone),
	}
	expenses := []ExpenseEntry{
		mustExpense(t, "2024-01-06", "a", "10.01", CategoryFood),
		mustExpense(t, "2024-02-06", "b", "99.99", CategoryHealth),
		mustExpense(t, "2024-03-06", "c", "0.5", CategoryOther),
	}
	want := ComputeTotals(income, expenses)

	revIncome := []IncomeEntry{income[2], income[0], income[1]}
	revExpenses := []ExpenseEntry{expenses[1], expenses[2], expenses[0]}
	got := ComputeTotals(revIncome, revExpenses)

	assertTotals(t, got, map[string]string{
		"tithe":        want.Tithe.String(),
		"savings":      want.Savings.String(),
		"savInv":       want.SavingsInvestment.String(),
		"savEm":        want.SavingsEmergency.String(),
		"wants":        want.Wants.String(),
		"spent":        want.Spent.String(),
		"wantsBalance": want.WantsBalance.String(),
	})
}

func TestSpentPercent(t *testing.T) {
	cases := []struct {
		wants, spent, want string
	}{
		{"0", "0", "0"},
		{"0", "50", "0"},
		{"200", "50", "25"},
		{"200", "200", "100"},
		{"200", "500", "100"},
	}
	for _, tc := range cases {
		got := SpentPercent(Totals{Wants: dec(tc.wants), Spent: dec(tc.spent)})
		if !got.Equal(dec(tc.want)) {
			t.Errorf("SpentPercent(wants=%s, spent=%s) = %s, want %s", tc.wants, tc.spent, got, tc.want)
		}
	}
}

func TestCategoryBreakdown(t *testing.T) {
	expenses := []ExpenseEntry{
		mustExpense(t, "2024-01-01", "bus", "2.5", CategoryTransport),
		mustExpense(t, "2024-01-02", "groceries", "40", CategoryFood),
		mustExpense(t, "2024-01-03", "dinner", "35", CategoryFood),
		mustExpense(t, "2024-01-04", "power", "75", CategoryBills),
		mustExpense(t, "2024-01-05", "train", "2.5", CategoryGeneral),
	}
	got := CategoryBreakdown(expenses)
	want := []struct {
		c   Category
		amt string
	}{
		{CategoryFood, "75"},
		{CategoryBills, "75"},
		{CategoryGeneral, "2.5"},
		{CategoryTransport, "2.5"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Category != w.c || !got[i].Amount.Equal(dec(w.amt)) {
			t.Errorf("position %d = %s %s, want %s %s", i, got[i].Category, got[i].Amount, w.c, w.amt)
		}
	}
	if len(CategoryBreakdown(nil)) != 0 {
		t.Fatal("expected empty breakdown")
	}
}
