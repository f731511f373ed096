package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Regular      Classification = "Regular"
	Supplemental Classification = "Supplemental"
)

const (
	SavingsInvestment SavingsTag = "Investment"
	SavingsEmergency  SavingsTag = "Emergency"
	// SavingsNone marks income that allocates nothing to savings.
	SavingsNone SavingsTag = "N/A"
)

const (
	CategoryGeneral       Category = "General"
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryBills         Category = "Bills"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategoryOther         Category = "Other"
)

type (
	Classification string

	SavingsTag string

	Category string

	// IncomeEntry is a recorded salary or income event. Tithe, Wants and
	// Savings are fixed at creation time and stored verbatim.
	IncomeEntry struct {
		ID             string
		UserID         string
		Date           Date
		Amount         decimal.Decimal
		Classification Classification
		SavingsTag     SavingsTag
		Tithe          decimal.Decimal
		Wants          decimal.Decimal
		Savings        decimal.Decimal
	}

	ExpenseEntry struct {
		ID       string
		UserID   string
		Date     Date
		Name     string
		Amount   decimal.Decimal
		Category Category
	}
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidDate           = errors.New("invalid date")
	ErrEmptyName             = errors.New("empty name")
	ErrNameTooLong           = errors.New("name too long (max 200 characters)")
	ErrUnknownCategory       = errors.New("unknown category")
	ErrUnknownClassification = errors.New("unknown income classification")
	ErrUnknownSavingsTag     = errors.New("unknown savings tag")
)

// Classifications lists the income kinds in display order.
func Classifications() []Classification {
	return []Classification{Regular, Supplemental}
}

// SavingsTags lists the named savings destinations in display order.
func SavingsTags() []SavingsTag {
	return []SavingsTag{SavingsInvestment, SavingsEmergency}
}

// Categories lists the expense categories in display order.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryFood,
		CategoryTransport,
		CategoryBills,
		CategoryHealth,
		CategoryEntertainment,
		CategoryShopping,
		CategoryOther,
	}
}

func (c Classification) Validate() error {
	switch c {
	case Regular, Supplemental:
		return nil
	}
	return ErrUnknownClassification
}

func (t SavingsTag) Validate() error {
	switch t {
	case SavingsInvestment, SavingsEmergency, SavingsNone:
		return nil
	}
	return ErrUnknownSavingsTag
}

func (c Category) Validate() error {
	for _, known := range Categories() {
		if c == known {
			return nil
		}
	}
	return ErrUnknownCategory
}

// ParseClassification matches s against the known classifications, ignoring case.
func ParseClassification(s string) (Classification, error) {
	for _, c := range Classifications() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", ErrUnknownClassification
}

func ParseSavingsTag(s string) (SavingsTag, error) {
	s = strings.TrimSpace(s)
	for _, t := range []SavingsTag{SavingsInvestment, SavingsEmergency, SavingsNone} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", ErrUnknownSavingsTag
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// NewIncomeEntry validates the user input and fixes the allocation split.
// Supplemental income always carries SavingsNone regardless of tag.
func NewIncomeEntry(userID string, date Date, amount decimal.Decimal, c Classification, tag SavingsTag) (IncomeEntry, error) {
	if c == Supplemental {
		tag = SavingsNone
	}
	e := IncomeEntry{
		UserID:         userID,
		Date:           date,
		Amount:         amount,
		Classification: c,
		SavingsTag:     tag,
	}
	if err := e.validateInput(); err != nil {
		return IncomeEntry{}, err
	}
	a := Allocate(amount, c)
	e.Tithe, e.Wants, e.Savings = a.Tithe, a.Wants, a.Savings
	return e, nil
}

func NewExpenseEntry(userID string, date Date, name string, amount decimal.Decimal, category Category) (ExpenseEntry, error) {
	e := ExpenseEntry{
		UserID:   userID,
		Date:     date,
		Name:     strings.TrimSpace(name),
		Amount:   amount,
		Category: category,
	}
	if err := e.Validate(); err != nil {
		return ExpenseEntry{}, err
	}
	return e, nil
}

func (e IncomeEntry) validateInput() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := e.Classification.Validate(); err != nil {
		return err
	}
	if err := e.SavingsTag.Validate(); err != nil {
		return err
	}
	if e.Classification == Regular && e.SavingsTag == SavingsNone {
		return ErrUnknownSavingsTag
	}
	return nil
}

// Validate checks the user-supplied fields and that the stored split
// honours the allocation invariant for its classification.
func (e IncomeEntry) Validate() error {
	if err := e.validateInput(); err != nil {
		return err
	}
	switch e.Classification {
	case Supplemental:
		if !e.Wants.Equal(e.Amount) || !e.Tithe.IsZero() || !e.Savings.IsZero() {
			return errors.New("supplemental income must allocate everything to wants")
		}
	case Regular:
		residue := e.Tithe.Add(e.Wants).Add(e.Savings).Sub(e.Amount).Abs()
		if residue.GreaterThan(allocationTolerance) {
			return errors.New("allocation does not add up to amount")
		}
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return e.Category.Validate()
}
