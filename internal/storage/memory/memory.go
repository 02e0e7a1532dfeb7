// Package memory is an in-process storage backend, used by default and in
// tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type budgetKey struct {
	category string
	month    core.Month
}

type Store struct {
	mu      sync.RWMutex
	items   []core.Transaction
	budgets map[budgetKey]core.Budget
	order   []budgetKey
}

func New() *Store {
	return &Store{budgets: make(map[budgetKey]core.Budget)}
}

// NewWithTransactions seeds the store, keeping the given order.
func NewWithTransactions(txs ...core.Transaction) *Store {
	s := New()
	s.items = append(s.items, txs...)
	return s
}

func (s *Store) FindTransactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.Match(t) {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return clone(s.items[i]), nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, clone(t))
	return nil
}

// UpdateTransaction replaces the record in place, keeping its insertion slot.
func (s *Store) UpdateTransaction(_ context.Context, id string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	t.ID = id
	s.items[i] = clone(t)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) FindBudgets(_ context.Context, month core.Month) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, k := range s.order {
		if month.IsZero() || k.month == month {
			out = append(out, s.budgets[k])
		}
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := budgetKey{category: b.Category, month: b.Month}
	if _, ok := s.budgets[k]; !ok {
		s.order = append(s.order, k)
	}
	s.budgets[k] = b
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// clone detaches the optional end date so callers cannot mutate stored data.
func clone(t core.Transaction) core.Transaction {
	if t.RecurringEndDate != nil {
		d := *t.RecurringEndDate
		t.RecurringEndDate = &d
	}
	return t
}
