package services

import (
	"testing"

	"fintrack/internal/core"
)

func statusFor(statuses []BudgetStatus, category string) BudgetStatus {
	for _, st := range statuses {
		if st.Category == category {
			return st
		}
	}
	return BudgetStatus{}
}

func TestCompareBudgets(t *testing.T) {
	reg := core.DefaultRegistry()
	march := core.Month{Year: 2024, Month: 3}
	budgets := []core.Budget{
		{Category: "Food", Month: march, Amount: core.MustMoney("80")},
		{Category: "Housing", Month: march, Amount: core.MustMoney("1000")},
		{Category: "Entertainment", Month: march, Amount: core.MustMoney("0")},
		{Category: "Food", Month: march.Prev(), Amount: core.MustMoney("5")},
		{Category: "Pets", Month: march, Amount: core.MustMoney("50")},
	}
	actuals := map[string]core.Money{
		"Food":          core.MustMoney("100"),
		"Housing":       core.MustMoney("250"),
		"Entertainment": core.MustMoney("40"),
		"Shopping":      core.MustMoney("15"),
	}

	statuses := CompareBudgets(march, budgets, actuals, reg)
	if len(statuses) != reg.Len() {
		t.Fatalf("CompareBudgets() returned %d statuses, want %d", len(statuses), reg.Len())
	}
	for i, label := range reg.Labels() {
		if statuses[i].Category != label {
			t.Errorf("statuses[%d] = %s, want registry order %s", i, statuses[i].Category, label)
		}
	}

	tests := []struct {
		category  string
		budget    string
		actual    string
		remaining string
		over      bool
		ratio     float64
	}{
		{"Food", "80.00", "100.00", "-20.00", true, 1.0},
		{"Housing", "1000.00", "250.00", "750.00", false, 0.25},
		{"Entertainment", "0.00", "40.00", "-40.00", false, 0},
		{"Shopping", "0.00", "15.00", "-15.00", false, 0},
		{"Education", "0.00", "0.00", "0.00", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			st := statusFor(statuses, tt.category)
			if st.BudgetAmount.String() != tt.budget || st.ActualAmount.String() != tt.actual {
				t.Errorf("amounts = %s/%s, want %s/%s", st.BudgetAmount, st.ActualAmount, tt.budget, tt.actual)
			}
			if st.Remaining.String() != tt.remaining {
				t.Errorf("Remaining = %s, want %s", st.Remaining, tt.remaining)
			}
			if st.OverBudget != tt.over {
				t.Errorf("OverBudget = %v, want %v", st.OverBudget, tt.over)
			}
			if st.ProgressRatio != tt.ratio {
				t.Errorf("ProgressRatio = %v, want %v", st.ProgressRatio, tt.ratio)
			}
		})
	}
}
