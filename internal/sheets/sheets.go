// Package sheets defines the downstream spreadsheet mirror. The mirror is a
// copy for humans; nothing in the pipeline reads it back.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Mirror receives the current state of records after they change.
type Mirror interface {
	// UpsertTransaction writes t into the row keyed by t.ID, appending when absent.
	UpsertTransaction(ctx context.Context, t core.Transaction) error
	// DeleteTransaction clears the row keyed by id; a missing row is not an error.
	DeleteTransaction(ctx context.Context, id string) error
	// UpsertBudget writes b into the row keyed by category and month.
	UpsertBudget(ctx context.Context, b core.Budget) error
}

// TransactionHeader names the mirror's transaction columns, A through I.
var TransactionHeader = []any{"ID", "Date", "Description", "Category", "Type", "Amount", "Recurring", "Recurrence", "Ends"}

// BudgetHeader names the mirror's budget columns, A through C.
var BudgetHeader = []any{"Category", "Month", "Amount"}

// TransactionRow renders t in TransactionHeader order. Amount is a number so
// the sheet can sum it.
func TransactionRow(t core.Transaction) []any {
	recurrence, ends := "", ""
	if t.Recurring {
		recurrence = t.RecurringType.String()
		if t.RecurringEndDate != nil {
			ends = t.RecurringEndDate.String()
		}
	}
	return []any{
		t.ID,
		t.Date.String(),
		t.Description,
		t.Category,
		string(t.Type),
		t.Amount.Amount.InexactFloat64(),
		t.Recurring,
		recurrence,
		ends,
	}
}

// BudgetRow renders b in BudgetHeader order.
func BudgetRow(b core.Budget) []any {
	return []any{b.Category, b.Month.String(), b.Amount.Amount.InexactFloat64()}
}
