package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "fintrack.db")
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func TestSQLiteRepositoryMigrates(t *testing.T) {
	_, dbPath := newTestRepo(t)
	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("SchemaVersion() = %d (dirty=%v), want 1 clean", version, dirty)
	}
	// Re-running is a no-op.
	if err := RunMigrations(dbPath); err != nil {
		t.Errorf("second RunMigrations() error = %v", err)
	}
}

func TestSQLiteRepositoryTransactionLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	end := core.NewDate(2024, 12, 31)
	rent := core.Transaction{
		ID:               "rent",
		Amount:           core.MustMoney("950.50"),
		Date:             core.NewDate(2024, 1, 31),
		Description:      "Rent",
		Category:         "Housing",
		Type:             core.Expense,
		Recurring:        true,
		RecurringType:    core.Monthly,
		RecurringEndDate: &end,
	}
	salary := core.Transaction{
		ID:          "salary",
		Amount:      core.MustMoney("3000"),
		Date:        core.NewDate(2024, 1, 25),
		Description: "Salary",
		Category:    "Salary",
		Type:        core.Income,
	}
	for _, tx := range []core.Transaction{rent, salary} {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction(%s) error = %v", tx.ID, err)
		}
	}

	got, err := repo.GetTransaction(ctx, "rent")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !got.Amount.Equal(rent.Amount) || got.RecurringType != core.Monthly ||
		got.RecurringEndDate == nil || got.RecurringEndDate.String() != "2024-12-31" {
		t.Errorf("GetTransaction() = %+v, want %+v", got, rent)
	}

	all, err := repo.FindTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("FindTransactions() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "rent" || all[1].ID != "salary" {
		t.Errorf("FindTransactions() order = %+v, want insertion order", all)
	}

	incomes, _ := repo.FindTransactions(ctx, TransactionFilter{Type: core.Income})
	if len(incomes) != 1 || incomes[0].ID != "salary" || incomes[0].RecurringEndDate != nil {
		t.Errorf("FindTransactions(income) = %+v", incomes)
	}

	salary.Amount = core.MustMoney("3100")
	if err := repo.UpdateTransaction(ctx, "salary", salary); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	got, _ = repo.GetTransaction(ctx, "salary")
	if got.Amount.String() != "3100.00" {
		t.Errorf("after update amount = %s, want 3100.00", got.Amount)
	}

	if err := repo.DeleteTransaction(ctx, "rent"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "rent"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepositoryNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpdateTransaction(ctx, "nope", core.Transaction{Amount: core.MustMoney("1"), Date: core.NewDate(2024, 1, 1), Type: core.Expense}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction() error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepositoryUpsertBudget(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	march := core.Month{Year: 2024, Month: 3}

	b := core.Budget{Category: "Food", Month: march, Amount: core.MustMoney("80")}
	for i := 0; i < 2; i++ {
		if err := repo.UpsertBudget(ctx, b); err != nil {
			t.Fatalf("UpsertBudget() error = %v", err)
		}
	}
	budgets, err := repo.FindBudgets(ctx, march)
	if err != nil {
		t.Fatalf("FindBudgets() error = %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("FindBudgets() returned %d records, want 1", len(budgets))
	}

	b.Amount = core.MustMoney("95.5")
	if err := repo.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	budgets, _ = repo.FindBudgets(ctx, march)
	if len(budgets) != 1 || budgets[0].Amount.String() != "95.50" || budgets[0].Month != march {
		t.Errorf("FindBudgets() = %+v", budgets)
	}

	if err := repo.UpsertBudget(ctx, core.Budget{Category: "Food", Month: march.Next(), Amount: core.MustMoney("10")}); err != nil {
		t.Fatalf("UpsertBudget(april) error = %v", err)
	}
	all, _ := repo.FindBudgets(ctx, core.Month{})
	if len(all) != 2 {
		t.Errorf("FindBudgets(all) returned %d records, want 2", len(all))
	}
}
