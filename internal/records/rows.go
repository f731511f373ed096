package records

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
)

// IncomeRow is the text form of an income entry as stores keep it.
type IncomeRow struct {
	ID             string
	UserID         string
	Date           string
	Amount         string
	Classification string
	SavingsTag     string
	Tithe          string
	Wants          string
	Savings        string
}

type ExpenseRow struct {
	ID       string
	UserID   string
	Date     string
	Name     string
	Amount   string
	Category string
}

func IncomeToRow(e core.IncomeEntry) IncomeRow {
	return IncomeRow{
		ID:             e.ID,
		UserID:         e.UserID,
		Date:           e.Date.String(),
		Amount:         e.Amount.String(),
		Classification: string(e.Classification),
		SavingsTag:     string(e.SavingsTag),
		Tithe:          e.Tithe.String(),
		Wants:          e.Wants.String(),
		Savings:        e.Savings.String(),
	}
}

func ExpenseToRow(e core.ExpenseEntry) ExpenseRow {
	return ExpenseRow{
		ID:       e.ID,
		UserID:   e.UserID,
		Date:     e.Date.String(),
		Name:     e.Name,
		Amount:   e.Amount.String(),
		Category: string(e.Category),
	}
}

// Entry parses the row. Any malformed field is reported as ErrCorruptRecord;
// stored allocations are taken verbatim and never recomputed.
func (r IncomeRow) Entry() (core.IncomeEntry, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.IncomeEntry{}, corrupt(r.ID, "date", err)
	}
	amounts := make([]decimal.Decimal, 4)
	for i, f := range []struct{ name, value string }{
		{"amount", r.Amount},
		{"tithe", r.Tithe},
		{"wants", r.Wants},
		{"savings", r.Savings},
	} {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return core.IncomeEntry{}, corrupt(r.ID, f.name, err)
		}
		amounts[i] = d
	}
	class := core.Classification(r.Classification)
	if err := class.Validate(); err != nil {
		return core.IncomeEntry{}, corrupt(r.ID, "classification", err)
	}
	tag := core.SavingsTag(r.SavingsTag)
	if err := tag.Validate(); err != nil {
		return core.IncomeEntry{}, corrupt(r.ID, "savings_tag", err)
	}
	return core.IncomeEntry{
		ID:             r.ID,
		UserID:         r.UserID,
		Date:           date,
		Amount:         amounts[0],
		Classification: class,
		SavingsTag:     tag,
		Tithe:          amounts[1],
		Wants:          amounts[2],
		Savings:        amounts[3],
	}, nil
}

func (r ExpenseRow) Entry() (core.ExpenseEntry, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.ExpenseEntry{}, corrupt(r.ID, "date", err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.ExpenseEntry{}, corrupt(r.ID, "amount", err)
	}
	category := core.Category(r.Category)
	if err := category.Validate(); err != nil {
		return core.ExpenseEntry{}, corrupt(r.ID, "category", err)
	}
	return core.ExpenseEntry{
		ID:       r.ID,
		UserID:   r.UserID,
		Date:     date,
		Name:     r.Name,
		Amount:   amount,
		Category: category,
	}, nil
}

func corrupt(id, field string, err error) error {
	return fmt.Errorf("%w: entry %s field %s: %w", ErrCorruptRecord, id, field, err)
}
