package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestMemoryStoreKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.InsertTransaction(ctx, core.Transaction{ID: id, Type: core.Expense, Category: "Food"}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := s.UpdateTransaction(ctx, "a", core.Transaction{Description: "updated", Type: core.Income}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.FindTransactions(ctx, storage.TransactionFilter{})
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Description != "updated" {
		t.Errorf("update not applied: %+v", got[0])
	}

	incomes, _ := s.FindTransactions(ctx, storage.TransactionFilter{Type: core.Income})
	if len(incomes) != 1 || incomes[0].ID != "a" {
		t.Errorf("filter by type = %+v", incomes)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() = %v, want ErrNotFound", err)
	}
	if err := s.UpdateTransaction(ctx, "missing", core.Transaction{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction() = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpsertBudgetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	march := core.Month{Year: 2024, Month: 3}
	b := core.Budget{Category: "Food", Month: march, Amount: core.MustMoney("80")}
	for i := 0; i < 2; i++ {
		if err := s.UpsertBudget(ctx, b); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	got, _ := s.FindBudgets(ctx, march)
	if len(got) != 1 {
		t.Fatalf("FindBudgets() returned %d budgets, want 1", len(got))
	}

	b.Amount = core.MustMoney("120")
	_ = s.UpsertBudget(ctx, b)
	got, _ = s.FindBudgets(ctx, march)
	if len(got) != 1 || !got[0].Amount.Equal(core.MustMoney("120")) {
		t.Errorf("upsert did not replace amount: %+v", got)
	}

	if other, _ := s.FindBudgets(ctx, march.Next()); len(other) != 0 {
		t.Errorf("FindBudgets(next month) = %+v, want none", other)
	}
}
