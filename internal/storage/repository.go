package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = `id, amount, date, description, category, type, recurring, recurring_type, recurring_end_date`

// FindTransactions implements TransactionStore
func (r *SQLiteRepository) FindTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
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

// GetTransaction implements TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

// InsertTransaction implements TransactionStore
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, date, description, category, type, recurring, recurring_type, recurring_end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount.Amount.String(), t.Date.String(), t.Description, t.Category, string(t.Type),
		t.Recurring, nullRecurrence(t.RecurringType), nullDate(t.RecurringEndDate))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"amount", t.Amount.String(),
		"date", t.Date.String(),
		"category", t.Category)
	return nil
}

// UpdateTransaction implements TransactionStore
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, date = ?, description = ?, category = ?, type = ?,
		    recurring = ?, recurring_type = ?, recurring_end_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Amount.Amount.String(), t.Date.String(), t.Description, t.Category, string(t.Type),
		t.Recurring, nullRecurrence(t.RecurringType), nullDate(t.RecurringEndDate), id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteTransaction implements TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireAffected(res)
}

// FindBudgets implements BudgetStore
func (r *SQLiteRepository) FindBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	query := "SELECT category, month, amount FROM budgets"
	var args []any
	if !month.IsZero() {
		query += " WHERE month = ?"
		args = append(args, month.String())
	}
	query += " ORDER BY month, category"

	rows, err := r.db.QueryContext(ctx, query, args...)
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
		m, err := core.ParseMonth(monthText)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", category, err)
		}
		amt, err := core.ParseMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("budget %s amount %q: %w", category, amount, err)
		}
		out = append(out, core.Budget{Category: category, Month: m, Amount: amt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

// UpsertBudget implements BudgetStore
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, month, amount) VALUES (?, ?, ?)
		ON CONFLICT(category, month) DO UPDATE SET amount = excluded.amount, updated_at = CURRENT_TIMESTAMP`,
		b.Category, b.Month.String(), b.Amount.Amount.String())
	if err != nil {
		return fmt.Errorf("upsert budget %s/%s: %w", b.Category, b.Month, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		amount, date, txType   string
		recurringType, endDate sql.NullString
	)
	if err := row.Scan(&t.ID, &amount, &date, &t.Description, &t.Category, &txType,
		&t.Recurring, &recurringType, &endDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	return decodeTransaction(t, amount, date, txType, recurringType.String, endDate.String)
}

// decodeTransaction parses the text-encoded columns of a transaction row.
func decodeTransaction(t core.Transaction, amount, date, txType, recurringType, endDate string) (core.Transaction, error) {
	var err error
	if t.Amount, err = core.ParseMoney(amount); err != nil {
		return t, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Type = core.TransactionType(txType)
	// Unknown stored recurrence degrades to none; the record then expands to nothing.
	t.RecurringType, _ = core.ParseRecurrenceType(recurringType)
	if endDate != "" {
		d, err := core.ParseDate(endDate)
		if err != nil {
			return t, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.RecurringEndDate = &d
	}
	return t, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullRecurrence(rt core.RecurrenceType) sql.NullString {
	return sql.NullString{String: rt.String(), Valid: rt != core.RecurrenceNone}
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
