// Package ledger holds one signed-in user's entries in memory and derives
// every figure shown to them from those collections.
package ledger

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

// ErrStale is returned by Load when the ledger was discarded while the
// fetch was in flight; the fetched data is dropped.
var ErrStale = errors.New("ledger discarded during load")

// loadAttempts bounds how often Load refetches when confirmed writes keep
// landing while a fetch is in flight.
const loadAttempts = 3

// Gateway is the entry store as the ledger sees it.
type Gateway interface {
	FetchAll(ctx context.Context, userID string) ([]core.IncomeEntry, []core.ExpenseEntry, error)
	InsertIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
	InsertExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error)
	Delete(ctx context.Context, userID string, c records.Collection, id string) error
}

// View is a snapshot of everything derived from the collections.
type View struct {
	Totals       core.Totals
	SpentPercent decimal.Decimal
	Groups       []core.MonthGroup
	Categories   []core.CategoryAmount
	Income       []core.IncomeEntry
	Expenses     []core.ExpenseEntry
}

// Ledger changes its collections only after the gateway confirmed a
// write; a failed call leaves it exactly as it was.
type Ledger struct {
	userID string
	gw     Gateway

	mu         sync.Mutex
	generation uint64
	writes     uint64 // confirmed writes applied in memory
	loaded     bool
	income     []core.IncomeEntry
	expenses   []core.ExpenseEntry
}

func New(userID string, gw Gateway) *Ledger {
	return &Ledger{
		userID:   userID,
		gw:       gw,
		income:   []core.IncomeEntry{},
		expenses: []core.ExpenseEntry{},
	}
}

func (l *Ledger) UserID() string { return l.userID }

// Load replaces both collections with a fresh fetch. A fetch that
// overlapped a confirmed write may predate it, so it is retried.
func (l *Ledger) Load(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		l.mu.Lock()
		gen, writes := l.generation, l.writes
		l.mu.Unlock()

		income, expenses, err := l.gw.FetchAll(ctx, l.userID)
		if err != nil {
			return err
		}

		l.mu.Lock()
		if gen != l.generation {
			l.mu.Unlock()
			return ErrStale
		}
		if writes != l.writes && attempt < loadAttempts {
			l.mu.Unlock()
			continue
		}
		l.income = income
		l.expenses = expenses
		core.SortIncomeByDate(l.income)
		core.SortExpensesByDate(l.expenses)
		l.loaded = true
		l.mu.Unlock()
		return nil
	}
}

// EnsureLoaded loads the collections the first time they are needed.
func (l *Ledger) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if loaded {
		return nil
	}
	return l.Load(ctx)
}

func (l *Ledger) AddIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	gen := l.currentGeneration()
	e.UserID = l.userID

	saved, err := l.gw.InsertIncome(ctx, e)
	if err != nil {
		return core.IncomeEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen == l.generation {
		l.writes++
		// a load may already have picked the entry up
		if !slices.ContainsFunc(l.income, func(e core.IncomeEntry) bool { return e.ID == saved.ID }) {
			next := make([]core.IncomeEntry, 0, len(l.income)+1)
			next = append(next, saved)
			next = append(next, l.income...)
			core.SortIncomeByDate(next)
			l.income = next
		}
	}
	return saved, nil
}

func (l *Ledger) AddExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	gen := l.currentGeneration()
	e.UserID = l.userID

	saved, err := l.gw.InsertExpense(ctx, e)
	if err != nil {
		return core.ExpenseEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen == l.generation {
		l.writes++
		if !slices.ContainsFunc(l.expenses, func(e core.ExpenseEntry) bool { return e.ID == saved.ID }) {
			next := make([]core.ExpenseEntry, 0, len(l.expenses)+1)
			next = append(next, saved)
			next = append(next, l.expenses...)
			core.SortExpensesByDate(next)
			l.expenses = next
		}
	}
	return saved, nil
}

// Delete removes the entry from the store and then from memory.
func (l *Ledger) Delete(ctx context.Context, c records.Collection, id string) error {
	gen := l.currentGeneration()

	if err := l.gw.Delete(ctx, l.userID, c, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return nil
	}
	l.writes++
	switch c {
	case records.Income:
		next := make([]core.IncomeEntry, 0, len(l.income))
		for _, e := range l.income {
			if e.ID != id {
				next = append(next, e)
			}
		}
		l.income = next
	case records.Expenses:
		next := make([]core.ExpenseEntry, 0, len(l.expenses))
		for _, e := range l.expenses {
			if e.ID != id {
				next = append(next, e)
			}
		}
		l.expenses = next
	}
	return nil
}

func (l *Ledger) DeleteIncome(ctx context.Context, id string) error {
	return l.Delete(ctx, records.Income, id)
}

func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	return l.Delete(ctx, records.Expenses, id)
}

// Discard forgets everything and invalidates in-flight calls.
func (l *Ledger) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.loaded = false
	l.income = []core.IncomeEntry{}
	l.expenses = []core.ExpenseEntry{}
}

// View recomputes every derived figure from the current collections.
func (l *Ledger) View() View {
	l.mu.Lock()
	income := append([]core.IncomeEntry{}, l.income...)
	expenses := append([]core.ExpenseEntry{}, l.expenses...)
	l.mu.Unlock()

	totals := core.ComputeTotals(income, expenses)
	return View{
		Totals:       totals,
		SpentPercent: core.SpentPercent(totals),
		Groups:       core.GroupByMonth(income, expenses),
		Categories:   core.CategoryBreakdown(expenses),
		Income:       income,
		Expenses:     expenses,
	}
}

func (l *Ledger) currentGeneration() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}
