package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryIncomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d, _ := core.ParseDate("2024-01-31")
	in, err := core.NewIncomeEntry("u1", d, decimal.RequireFromString("1234.56"), core.Regular, core.SavingsInvestment)
	if err != nil {
		t.Fatal(err)
	}
	saved, err := repo.InsertIncome(ctx, in)
	if err != nil || saved.ID == "" {
		t.Fatalf("insert: %+v err=%v", saved, err)
	}

	got, err := repo.GetIncome(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date.String() != "2024-01-31" || !got.Tithe.Equal(in.Tithe) || !got.Wants.Equal(in.Wants) ||
		got.SavingsTag != core.SavingsInvestment || got.UserID != "u1" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if _, err := repo.GetIncome(ctx, "missing"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryListOrderAndScope(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tick := time.Unix(1700000000, 0)
	repo.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	add := func(user, date, name string) core.ExpenseEntry {
		t.Helper()
		d, _ := core.ParseDate(date)
		e, err := core.NewExpenseEntry(user, d, name, decimal.RequireFromString("5"), core.CategoryFood)
		if err != nil {
			t.Fatal(err)
		}
		saved, err := repo.InsertExpense(ctx, e)
		if err != nil {
			t.Fatal(err)
		}
		return saved
	}
	add("u1", "2024-01-01", "old")
	add("u1", "2024-03-01", "newer")
	add("u1", "2024-03-01", "newest")
	add("u2", "2024-04-01", "other user")

	list, err := repo.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	if len(names) != 3 || names[0] != "newest" || names[1] != "newer" || names[2] != "old" {
		t.Fatalf("unexpected order %v", names)
	}

	empty, err := repo.ListIncome(ctx, "u1")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty income, got %v err=%v", empty, err)
	}
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d, _ := core.ParseDate("2024-02-02")
	e, _ := core.NewExpenseEntry("u1", d, "lunch", decimal.RequireFromString("12.5"), core.CategoryFood)
	saved, err := repo.InsertExpense(ctx, e)
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, "u2", records.Expenses, saved.ID); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", records.Expenses, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", records.Expenses, saved.ID); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRepositoryCorruptRowIsFatal(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.db.ExecContext(ctx, `INSERT INTO expense_entries (id, user_id, date, name, amount, category, created_at)
		VALUES ('x', 'u1', '2024-01-01', 'bad', 'twelve', 'Food', 1)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ListExpenses(ctx, "u1"); !errors.Is(err, records.ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, records.User{Email: "Ann@Example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateUser(ctx, records.User{Email: "ann@example.com", PasswordHash: "x"}); !errors.Is(err, records.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	got, err := repo.FindUserByEmail(ctx, " ANN@example.com")
	if err != nil || got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("find: %+v err=%v", got, err)
	}
	if _, err := repo.FindUserByEmail(ctx, "bob@example.com"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.RevokeToken(ctx, "jti-1", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("revoking twice: %v", err)
	}
	revoked, err := repo.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, err=%v", err)
	}
	revoked, _ = repo.IsRevoked(ctx, "jti-2")
	if revoked {
		t.Fatal("jti-2 should not be revoked")
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(SQLite, path); err != nil {
		t.Fatal(err)
	}
	if err := RunMigrations(SQLite, path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
