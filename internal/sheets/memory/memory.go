// Package memory is an in-process Mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

// Mirror keeps rows in memory, keyed the same way the spreadsheet is.
type Mirror struct {
	mu           sync.Mutex
	transactions map[string][]any
	budgets      map[string][]any
	order        []string
}

func New() *Mirror {
	return &Mirror{
		transactions: make(map[string][]any),
		budgets:      make(map[string][]any),
	}
}

func (m *Mirror) UpsertTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.transactions[t.ID] = sheets.TransactionRow(t)
	return nil
}

func (m *Mirror) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mirror) UpsertBudget(_ context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[budgetKey(b.Category, b.Month.String())] = sheets.BudgetRow(b)
	return nil
}

// TransactionRows returns the mirrored transaction rows in first-write order.
func (m *Mirror) TransactionRows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([][]any, 0, len(m.order))
	for _, id := range m.order {
		rows = append(rows, m.transactions[id])
	}
	return rows
}

// Budget returns the mirrored row for category and month, if any.
func (m *Mirror) Budget(category, month string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.budgets[budgetKey(category, month)]
	return row, ok
}

func budgetKey(category, month string) string {
	return category + "\x00" + month
}
