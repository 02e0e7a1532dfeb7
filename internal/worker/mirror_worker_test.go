package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

type failingMirror struct {
	*sheetsmem.Mirror
	failID string
}

func (m failingMirror) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if t.ID == m.failID {
		return errors.New("quota exceeded")
	}
	return m.Mirror.UpsertTransaction(ctx, t)
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{ID: "t1", Amount: core.MustMoney("10"), Date: core.NewDate(2024, 3, 1), Description: "Coffee", Category: "Food", Type: core.Expense},
		{ID: "t2", Amount: core.MustMoney("900"), Date: core.NewDate(2024, 3, 1), Description: "Rent", Category: "Housing",
			Recurring: true, RecurringType: core.Monthly},
	} {
		if err := store.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}
	if err := store.UpsertBudget(ctx, core.Budget{Category: "Food", Month: core.Month{Year: 2024, Month: 3}, Amount: core.MustMoney("80")}); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	return store
}

func TestHandleEventTransactions(t *testing.T) {
	store := seed(t)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, "t1")); err != nil {
		t.Fatalf("HandleEvent(created) error = %v", err)
	}
	rows := mirror.TransactionRows()
	if len(rows) != 1 || rows[0][0] != "t1" || rows[0][4] != "expense" {
		t.Fatalf("rows = %v", rows)
	}

	if err := store.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	// A stale update for a record that is gone clears the row.
	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, "t1")); err != nil {
		t.Fatalf("HandleEvent(updated, missing) error = %v", err)
	}
	if rows := mirror.TransactionRows(); len(rows) != 0 {
		t.Errorf("rows after missing record = %v, want none", rows)
	}

	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, "never-mirrored")); err != nil {
		t.Errorf("HandleEvent(deleted, unknown) error = %v", err)
	}
}

func TestHandleEventBudget(t *testing.T) {
	store := seed(t)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewBudgetEvent("Food", "2024-03")); err != nil {
		t.Fatalf("HandleEvent(budget) error = %v", err)
	}
	row, ok := mirror.Budget("Food", "2024-03")
	if !ok || row[2] != 80.0 {
		t.Errorf("budget row = %v, %v", row, ok)
	}

	for _, evt := range []*amqp.ChangeEvent{
		amqp.NewBudgetEvent("Housing", "2024-03"),
		amqp.NewBudgetEvent("Food", "March"),
		{Entity: "account", Action: amqp.ActionCreated},
	} {
		if err := w.HandleEvent(ctx, evt); err != nil {
			t.Errorf("HandleEvent(%+v) error = %v, want skip", evt, err)
		}
	}
	if _, ok := mirror.Budget("Housing", "2024-03"); ok {
		t.Error("a budget that is not stored must not be mirrored")
	}
}

func TestHandleEventMirrorFailureRequeues(t *testing.T) {
	store := seed(t)
	w := NewMirrorWorker(store, failingMirror{Mirror: sheetsmem.New(), failID: "t1"})

	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.ActionCreated, "t1")); err == nil {
		t.Error("HandleEvent() should return the mirror error so the message is requeued")
	}
}

func TestStartupSync(t *testing.T) {
	store := seed(t)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, failingMirror{Mirror: mirror, failID: "t2"})

	synced, failed, err := w.StartupSync(context.Background())
	if err != nil {
		t.Fatalf("StartupSync() error = %v", err)
	}
	if synced != 2 || failed != 1 {
		t.Errorf("StartupSync() = %d synced, %d failed, want 2 and 1", synced, failed)
	}
	if rows := mirror.TransactionRows(); len(rows) != 1 || rows[0][0] != "t1" {
		t.Errorf("rows = %v", rows)
	}
}
