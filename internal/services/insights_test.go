package services

import (
	"strings"
	"testing"

	"fintrack/internal/core"
)

func money(pairs ...string) map[string]core.Money {
	out := make(map[string]core.Money)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = core.MustMoney(pairs[i+1])
	}
	return out
}

func TestGenerateInsightsCategoryChange(t *testing.T) {
	reg := core.DefaultRegistry()
	tests := []struct {
		name     string
		current  string
		previous string
		want     string
	}{
		{"exactly 20 percent is silent", "120", "100", ""},
		{"25 percent more", "125", "100", "You spent 25% more on Food than last month."},
		{"exactly minus 20 percent is silent", "80", "100", ""},
		{"30 percent less", "70", "100", "You spent 30% less on Food than last month."},
		{"rounded for display", "120.6", "100", "You spent 21% more on Food than last month."},
		{"previous zero is silent", "50", "0", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(money("Food", tt.current), money("Food", tt.previous),
				core.Money{}, core.Money{}, nil, reg)
			// The first message is always the biggest-category one.
			rest := got[1:]
			if tt.want == "" {
				if len(rest) != 0 {
					t.Errorf("GenerateInsights() = %q, want no change message", rest)
				}
				return
			}
			if len(rest) != 1 || rest[0] != tt.want {
				t.Errorf("GenerateInsights() = %q, want [%q]", rest, tt.want)
			}
		})
	}
}

func TestGenerateInsightsSavings(t *testing.T) {
	reg := core.DefaultRegistry()
	tests := []struct {
		name     string
		current  string
		previous string
		want     string
	}{
		{"more", "150", "100", "You saved 50% more than last month."},
		{"less", "50", "100", "You saved 50% less than last month."},
		{"within threshold", "110", "100", ""},
		{"previous zero", "100", "0", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(nil, nil, core.MustMoney(tt.current), core.MustMoney(tt.previous), nil, reg)
			if tt.want == "" {
				if len(got) != 0 {
					t.Errorf("GenerateInsights() = %q, want none", got)
				}
				return
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("GenerateInsights() = %q, want [%q]", got, tt.want)
			}
		})
	}

	negative := GenerateInsights(nil, nil, core.MustMoney("100").Sub(core.MustMoney("300")), core.MustMoney("100"), nil, reg)
	if len(negative) != 0 {
		t.Errorf("negative savings should be silent, got %q", negative)
	}
}

func TestGenerateInsightsOrder(t *testing.T) {
	reg := core.DefaultRegistry()
	current := money("Food", "300", "Housing", "300", "Shopping", "10")
	previous := money("Food", "100", "Shopping", "100")
	statuses := []BudgetStatus{
		{Category: "Food", OverBudget: true, BudgetAmount: core.MustMoney("250"), ActualAmount: core.MustMoney("300")},
		{Category: "Housing"},
		{Category: "Shopping", OverBudget: true, BudgetAmount: core.MustMoney("5"), ActualAmount: core.MustMoney("10")},
	}

	got := GenerateInsights(current, previous, core.MustMoney("200"), core.MustMoney("100"), statuses, reg)
	want := []string{
		"Your biggest expense category this month is Food at 300.00.",
		"You spent 200% more on Food than last month.",
		"You spent 90% less on Shopping than last month.",
		"You saved 100% more than last month.",
		"You're over budget on Food by 50.00. Consider increasing your Food budget.",
		"You're over budget on Shopping by 5.00. Consider increasing your Shopping budget.",
	}
	if len(got) != len(want) {
		t.Fatalf("GenerateInsights() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("insight %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateInsightsEmpty(t *testing.T) {
	if got := GenerateInsights(nil, nil, core.Money{}, core.Money{}, nil, core.DefaultRegistry()); len(got) != 0 {
		t.Errorf("GenerateInsights() = %q, want none", got)
	}
}

func TestEndToEndOverBudget(t *testing.T) {
	reg := core.DefaultRegistry()
	march := core.Month{Year: 2024, Month: 3}
	txs := []core.Transaction{oneOff("t1", "100", core.NewDate(2024, 3, 5), "Food", core.Expense)}
	budgets := []core.Budget{{Category: "Food", Month: march, Amount: core.MustMoney("80")}}

	d := BuildDashboard(march, txs, budgets, reg)

	food := statusFor(d.Budgets, "Food")
	if food.BudgetAmount.String() != "80.00" || food.ActualAmount.String() != "100.00" ||
		!food.OverBudget || food.ProgressRatio != 1.0 {
		t.Errorf("Food status = %+v", food)
	}

	found := false
	for _, msg := range d.Insights {
		if strings.Contains(strings.ToLower(msg), "consider increasing your food budget") {
			found = true
		}
	}
	if !found {
		t.Errorf("Insights = %q, want a 'consider increasing your Food budget' message", d.Insights)
	}
}
