// Package storage defines the persistence ports of the finance service and
// provides the SQLite implementation.
package storage

import (
	"context"

	"fintrack/internal/core"
)

// TransactionFilter narrows FindTransactions. Zero fields match everything.
type TransactionFilter struct {
	Type     core.TransactionType
	Category string
}

// Match reports whether t satisfies the filter.
func (f TransactionFilter) Match(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// TransactionStore persists transaction records. Find returns records in
// insertion order; Update and Delete return core.ErrNotFound for unknown ids.
type TransactionStore interface {
	FindTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	InsertTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, id string, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// BudgetStore persists budgets keyed by (category, month). A zero month
// passed to FindBudgets returns every budget.
type BudgetStore interface {
	FindBudgets(ctx context.Context, month core.Month) ([]core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) error
}

// Store is the full persistence surface of a backend.
type Store interface {
	TransactionStore
	BudgetStore
	Ping(ctx context.Context) error
	Close() error
}
