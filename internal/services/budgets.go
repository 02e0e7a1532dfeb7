package services

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// BudgetStatus compares one category's budget with its actual spend.
type BudgetStatus struct {
	Category      string     `json:"category"`
	Month         core.Month `json:"month"`
	BudgetAmount  core.Money `json:"budgetAmount"`
	ActualAmount  core.Money `json:"actualAmount"`
	Remaining     core.Money `json:"remaining"`
	OverBudget    bool       `json:"overBudget"`
	ProgressRatio float64    `json:"progressRatio"`
}

// CompareBudgets reports one status per registry category, in registry
// order. Budgets for other months or unknown categories are ignored; a
// category without a budget counts as budget 0.
func CompareBudgets(month core.Month, budgets []core.Budget, actuals map[string]core.Money, reg *core.Registry) []BudgetStatus {
	caps := make(map[string]core.Money, len(budgets))
	for _, b := range budgets {
		if b.Month != month || !reg.Contains(b.Category) {
			continue
		}
		caps[b.Category] = b.Amount
	}

	labels := reg.Labels()
	out := make([]BudgetStatus, 0, len(labels))
	for _, label := range labels {
		budget := caps[label]
		actual := actuals[label]
		st := BudgetStatus{
			Category:     label,
			Month:        month,
			BudgetAmount: budget,
			ActualAmount: actual,
			Remaining:    budget.Sub(actual),
		}
		if budget.IsPositive() {
			st.OverBudget = actual.GreaterThan(budget)
			st.ProgressRatio = progress(actual.Amount, budget.Amount)
		}
		out = append(out, st)
	}
	return out
}

func progress(actual, budget decimal.Decimal) float64 {
	ratio := actual.Div(budget)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	f, _ := ratio.Float64()
	return f
}
