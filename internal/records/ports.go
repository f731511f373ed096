// Package records defines the ports to the external record store that
// holds income and expense entries, user accounts and revoked sessions.
package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"moneytracker/internal/core"
)

// Collection names one of the two entry collections.
type Collection string

const (
	Income   Collection = "income"
	Expenses Collection = "expense"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrCorruptRecord     = errors.New("corrupt record")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrEmailTaken        = errors.New("email already registered")
)

// ParseCollection accepts the collection names used in routes and events.
func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense", "expenses":
		return Expenses, nil
	}
	return "", ErrUnknownCollection
}

// Ports for outbound adapters.
type (
	// IncomeLister returns every income entry owned by userID, newest date first.
	IncomeLister interface {
		ListIncome(ctx context.Context, userID string) ([]core.IncomeEntry, error)
	}

	// ExpenseLister returns every expense entry owned by userID, newest date first.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error)
	}

	// IncomeWriter stores a new entry and returns it with the assigned id.
	IncomeWriter interface {
		InsertIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
	}

	ExpenseWriter interface {
		InsertExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error)
	}

	// Deleter permanently removes one entry owned by userID. Unknown ids,
	// or ids owned by somebody else, yield ErrNotFound.
	Deleter interface {
		Delete(ctx context.Context, userID string, c Collection, id string) error
	}

	// EntryGetter looks entries up by id alone. Used by background
	// consumers that only carry the id.
	EntryGetter interface {
		GetIncome(ctx context.Context, id string) (core.IncomeEntry, error)
		GetExpense(ctx context.Context, id string) (core.ExpenseEntry, error)
	}

	// Store is everything the entry gateway needs from a backend.
	Store interface {
		IncomeLister
		ExpenseLister
		IncomeWriter
		ExpenseWriter
		Deleter
		EntryGetter
	}
)

// User is a local account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts and revoked session ids.
type UserStore interface {
	// CreateUser stores u with a fresh id. Duplicate emails yield ErrEmailTaken.
	CreateUser(ctx context.Context, u User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
