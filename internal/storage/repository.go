// Package storage keeps entries, users and revoked sessions in a SQL
// database reached through database/sql. SQLite and MySQL share the same
// queries; PostgreSQL lives in the postgres subpackage.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

// Dialect selects the SQL driver and migration set.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

func (d Dialect) driverName() string {
	return string(d)
}

const mysqlDuplicateEntry = 1062

type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewMySQLRepository connects with a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/moneytracker".
func NewMySQLRepository(dsn string) (*Repository, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	return open(MySQL, cfg.FormatDSN())
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; concurrent readers queue behind it.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InsertIncome implements records.IncomeWriter
func (r *Repository) InsertIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	e.ID = uuid.NewString()
	row := records.IncomeToRow(e)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO income_entries
			(id, user_id, date, amount, classification, savings_tag, tithe, wants, savings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Date, row.Amount, row.Classification, row.SavingsTag,
		row.Tithe, row.Wants, row.Savings, r.now().UnixNano())
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("create income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"backend", r.dialect,
		"id", row.ID,
		"amount", row.Amount,
		"classification", row.Classification,
		"date", row.Date)

	return e, nil
}

// InsertExpense implements records.ExpenseWriter
func (r *Repository) InsertExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.ID = uuid.NewString()
	row := records.ExpenseToRow(e)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_entries (id, user_id, date, name, amount, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Date, row.Name, row.Amount, row.Category, r.now().UnixNano())
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"backend", r.dialect,
		"id", row.ID,
		"name", row.Name,
		"amount", row.Amount,
		"date", row.Date)

	return e, nil
}

const (
	incomeColumns  = `id, user_id, date, amount, classification, savings_tag, tithe, wants, savings`
	expenseColumns = `id, user_id, date, name, amount, category`
)

// ListIncome implements records.IncomeLister
func (r *Repository) ListIncome(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM income_entries WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	out := []core.IncomeEntry{}
	for rows.Next() {
		e, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("list income: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return out, nil
}

// ListExpenses implements records.ExpenseLister
func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expense_entries WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.ExpenseEntry{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) GetIncome(ctx context.Context, id string) (core.IncomeEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM income_entries WHERE id = ?`, id)
	e, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeEntry{}, records.ErrNotFound
	}
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("get income %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, id string) (core.ExpenseEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expense_entries WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseEntry{}, records.ErrNotFound
	}
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

// Delete implements records.Deleter
func (r *Repository) Delete(ctx context.Context, userID string, c records.Collection, id string) error {
	var table string
	switch c {
	case records.Income:
		table = "income_entries"
	case records.Expenses:
		table = "expense_entries"
	default:
		return records.ErrUnknownCollection
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}
	if n == 0 {
		return records.ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted", "backend", r.dialect, "collection", c, "id", id)
	return nil
}

// CreateUser implements records.UserStore
func (r *Repository) CreateUser(ctx context.Context, u records.User) (records.User, error) {
	u.ID = uuid.NewString()
	u.Email = records.NormalizeEmail(u.Email)
	u.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return records.User{}, records.ErrEmailTaken
		}
		return records.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (records.User, error) {
	var (
		u       records.User
		created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		records.NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return records.User{}, records.ErrNotFound
	}
	if err != nil {
		return records.User{}, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

// RevokeToken records jti and drops revocations that have expired.
func (r *Repository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, r.now().Unix()); err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`REPLACE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, jti, expiresAt.Unix()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Repository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIncome(s scanner) (core.IncomeEntry, error) {
	var row records.IncomeRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Date, &row.Amount, &row.Classification,
		&row.SavingsTag, &row.Tithe, &row.Wants, &row.Savings); err != nil {
		return core.IncomeEntry{}, err
	}
	return row.Entry()
}

func scanExpense(s scanner) (core.ExpenseEntry, error) {
	var row records.ExpenseRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Date, &row.Name, &row.Amount, &row.Category); err != nil {
		return core.ExpenseEntry{}, err
	}
	return row.Entry()
}

func isUniqueViolation(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
