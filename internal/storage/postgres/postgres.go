// Package postgres is the PostgreSQL storage backend, built on a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// schema is applied in order on startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
		date DATE NOT NULL,
		description VARCHAR(200) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT 'Other',
		type VARCHAR(10) NOT NULL DEFAULT 'expense',
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		recurring_type VARCHAR(10),
		recurring_end_date DATE,
		created_at TIMESTAMP DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,

	`CREATE TABLE IF NOT EXISTS budgets (
		category VARCHAR(100) NOT NULL,
		month CHAR(7) NOT NULL,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		created_at TIMESTAMP DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT NOW(),
		PRIMARY KEY (category, month)
	)`,
}

// Store implements storage.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and bootstraps the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate runs the schema statements in order.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const selectTransactions = `
	SELECT id, amount::text, date, description, category, type, recurring,
	       COALESCE(recurring_type, ''), recurring_end_date
	FROM transactions`

func (s *Store) FindTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	query, args := buildFindQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// buildFindQuery returns the filtered SELECT in insertion order.
func buildFindQuery(f storage.TransactionFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, "type = $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	query := selectTransactions
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY seq", args
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, selectTransactions+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, amount, date, description, category, type, recurring, recurring_type, recurring_end_date)
		VALUES ($1, $2::text::numeric, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Amount.Amount.String(), t.Date.Time, t.Description, t.Category, string(t.Type),
		t.Recurring, recurrenceArg(t.RecurringType), endDateArg(t.RecurringEndDate))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, t core.Transaction) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions
		SET amount = $1::text::numeric, date = $2, description = $3, category = $4, type = $5,
		    recurring = $6, recurring_type = $7, recurring_end_date = $8, updated_at = NOW()
		WHERE id = $9`,
		t.Amount.Amount.String(), t.Date.Time, t.Description, t.Category, string(t.Type),
		t.Recurring, recurrenceArg(t.RecurringType), endDateArg(t.RecurringEndDate), id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) FindBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	query := `SELECT category, month, amount::text FROM budgets`
	var args []any
	if !month.IsZero() {
		query += ` WHERE month = $1`
		args = append(args, month.String())
	}
	query += ` ORDER BY month, category`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var category, monthText, amount string
		if err := rows.Scan(&category, &monthText, &amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b := core.Budget{Category: category}
		if b.Month, err = core.ParseMonth(monthText); err != nil {
			return nil, err
		}
		if b.Amount, err = core.ParseMoney(amount); err != nil {
			return nil, fmt.Errorf("budget %s amount %q: %w", category, amount, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO budgets (category, month, amount) VALUES ($1, $2, $3::text::numeric)
		ON CONFLICT (category, month) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()`,
		b.Category, b.Month.String(), b.Amount.Amount.String())
	if err != nil {
		return fmt.Errorf("upsert budget %s/%s: %w", b.Category, b.Month, err)
	}
	return nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t                     core.Transaction
		amount, txType, rtype string
		date                  time.Time
		endDate               *time.Time
	)
	if err := row.Scan(&t.ID, &amount, &date, &t.Description, &t.Category, &txType,
		&t.Recurring, &rtype, &endDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if t.Amount, err = core.ParseMoney(amount); err != nil {
		return t, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
	}
	t.Date = core.DateOf(date)
	t.Type = core.TransactionType(txType)
	t.RecurringType, _ = core.ParseRecurrenceType(rtype)
	if endDate != nil {
		d := core.DateOf(*endDate)
		t.RecurringEndDate = &d
	}
	return t, nil
}

func recurrenceArg(rt core.RecurrenceType) *string {
	if rt == core.RecurrenceNone {
		return nil
	}
	s := rt.String()
	return &s
}

func endDateArg(d *core.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	return &d.Time
}
