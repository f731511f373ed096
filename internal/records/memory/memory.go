// Package memory is an in-process record store. Everything is lost on
// restart; it backs development runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

type Store struct {
	mu       sync.Mutex
	income   []core.IncomeEntry
	expenses []core.ExpenseEntry
	users    map[string]records.User // by normalized email
	revoked  map[string]time.Time
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[string]records.User),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// InsertIncome stores the entry under a fresh id.
func (s *Store) InsertIncome(_ context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.income = append(s.income, e)
	return e, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

// ListIncome returns the user's entries newest date first; same-day entries
// are newest insert first.
func (s *Store) ListIncome(_ context.Context, userID string) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.IncomeEntry{}
	for i := len(s.income) - 1; i >= 0; i-- {
		if s.income[i].UserID == userID {
			out = append(out, s.income[i])
		}
	}
	core.SortIncomeByDate(out)
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.ExpenseEntry{}
	for i := len(s.expenses) - 1; i >= 0; i-- {
		if s.expenses[i].UserID == userID {
			out = append(out, s.expenses[i])
		}
	}
	core.SortExpensesByDate(out)
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, id string) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.income {
		if e.ID == id {
			return e, nil
		}
	}
	return core.IncomeEntry{}, records.ErrNotFound
}

func (s *Store) GetExpense(_ context.Context, id string) (core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.ExpenseEntry{}, records.ErrNotFound
}

// Delete removes one entry owned by userID.
func (s *Store) Delete(_ context.Context, userID string, c records.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch c {
	case records.Income:
		for i, e := range s.income {
			if e.ID == id && e.UserID == userID {
				s.income = append(s.income[:i], s.income[i+1:]...)
				return nil
			}
		}
	case records.Expenses:
		for i, e := range s.expenses {
			if e.ID == id && e.UserID == userID {
				s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
				return nil
			}
		}
	default:
		return records.ErrUnknownCollection
	}
	return records.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u records.User) (records.User, error) {
	u.Email = records.NormalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return records.User{}, records.ErrEmailTaken
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()
	s.users[u.Email] = u
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (records.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[records.NormalizeEmail(email)]
	if !ok {
		return records.User{}, records.ErrNotFound
	}
	return u, nil
}

// RevokeToken remembers jti until it would have expired anyway.
func (s *Store) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, k)
		}
	}
	s.revoked[jti] = expiresAt
	return nil
}

func (s *Store) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(context.Context) error { return nil }

// Users returns the registered emails in order. Handy for tests.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for email := range s.users {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}
