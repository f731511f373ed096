package core

import (
	"reflect"
	"testing"
)

func groupKeys(groups []MonthGroup) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

func TestGroupByMonthAcrossMonthBoundary(t *testing.T) {
	in := mustIncome(t, "2024-01-31", "1000", Regular, SavingsInvestment)
	ex := mustExpense(t, "2024-02-01", "rent", "300", CategoryBills)

	groups := GroupByMonth([]IncomeEntry{in}, []ExpenseEntry{ex})
	if got := groupKeys(groups); !reflect.DeepEqual(got, []string{"2024-02", "2024-01"}) {
		t.Fatalf("keys = %v", got)
	}

	feb, jan := groups[0], groups[1]
	if len(feb.Income) != 0 || len(feb.Expenses) != 1 || feb.Expenses[0].Name != "rent" {
		t.Fatalf("unexpected February group %+v", feb)
	}
	if len(jan.Income) != 1 || len(jan.Expenses) != 0 {
		t.Fatalf("unexpected January group %+v", jan)
	}
	if feb.Income == nil || jan.Expenses == nil {
		t.Fatal("empty sides must be non-nil slices")
	}
	if jan.Label() != "January 2024" {
		t.Fatalf("label = %q", jan.Label())
	}
}

func TestGroupByMonthOrderingAndTotals(t *testing.T) {
	income := []IncomeEntry{
		mustIncome(t, "2023-12-15", "100", Supplemental, SavingsNone),
		mustIncome(t, "2024-11-01", "200", Regular, SavingsEmergency),
		mustIncome(t, "2024-02-10", "300", Regular, SavingsInvestment),
		mustIncome(t, "2024-02-01", "50", Supplemental, SavingsNone),
	}
	expenses := []ExpenseEntry{
		mustExpense(t, "2024-02-20", "a", "20", CategoryFood),
		mustExpense(t, "2024-02-03", "b", "5", CategoryFood),
		mustExpense(t, "2024-10-31", "c", "7", CategoryOther),
	}

	groups := GroupByMonth(income, expenses)
	want := []string{"2024-11", "2024-10", "2024-02", "2023-12"}
	if got := groupKeys(groups); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}

	feb := groups[2]
	// input order is kept inside a group
	if !feb.Income[0].Amount.Equal(dec("300")) || !feb.Income[1].Amount.Equal(dec("50")) {
		t.Fatalf("February income order changed: %+v", feb.Income)
	}
	if feb.Expenses[0].Name != "a" || feb.Expenses[1].Name != "b" {
		t.Fatalf("February expense order changed: %+v", feb.Expenses)
	}
	if !feb.IncomeTotal().Equal(dec("350")) || !feb.SpentTotal().Equal(dec("25")) {
		t.Fatalf("February totals = %s / %s", feb.IncomeTotal(), feb.SpentTotal())
	}
	if !groups[1].IncomeTotal().IsZero() {
		t.Fatalf("October income total = %s", groups[1].IncomeTotal())
	}
}

func TestGroupByMonthIdempotent(t *testing.T) {
	income := []IncomeEntry{
		mustIncome(t, "2024-05-01", "10", Regular, SavingsInvestment),
		mustIncome(t, "2024-04-01", "20", Regular, SavingsEmergency),
	}
	expenses := []ExpenseEntry{
		mustExpense(t, "2024-05-02", "x", "1", CategoryFood),
		mustExpense(t, "2024-03-02", "y", "2", CategoryFood),
	}

	summarize := func(groups []MonthGroup) []string {
		var out []string
		for _, g := range groups {
			out = append(out, g.Key)
			for _, e := range g.Income {
				out = append(out, "i:"+e.Amount.String())
			}
			for _, e := range g.Expenses {
				out = append(out, "e:"+e.Name)
			}
		}
		return out
	}

	first := summarize(GroupByMonth(income, expenses))
	second := summarize(GroupByMonth(income, expenses))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grouping not idempotent:\n%v\n%v", first, second)
	}
}

func TestGroupByMonthEmpty(t *testing.T) {
	if groups := GroupByMonth(nil, nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %v", groups)
	}
}

func TestSortByDate(t *testing.T) {
	income := []IncomeEntry{
		{ID: "a", Date: NewDate(2024, 1, 1)},
		{ID: "b", Date: NewDate(2024, 3, 1)},
		{ID: "c", Date: NewDate(2024, 1, 1)},
		{ID: "d", Date: NewDate(2024, 2, 1)},
	}
	SortIncomeByDate(income)
	var ids []string
	for _, e := range income {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "d", "a", "c"}) {
		t.Fatalf("income order = %v", ids)
	}

	expenses := []ExpenseEntry{
		{ID: "x", Date: NewDate(2023, 12, 31)},
		{ID: "y", Date: NewDate(2024, 1, 1)},
	}
	SortExpensesByDate(expenses)
	if expenses[0].ID != "y" {
		t.Fatalf("expense order = %v", expenses)
	}
}
