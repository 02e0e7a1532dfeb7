package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ChangeThreshold is the month-over-month change, in percent, that must be
// exceeded before an insight is emitted.
var ChangeThreshold = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// GenerateInsights derives human-readable observations for a month.
//
// Order: biggest expense category first, then per-category changes against
// the previous month, then the savings change, then over-budget categories.
func GenerateInsights(current, previous map[string]core.Money, currentSavings, previousSavings core.Money, statuses []BudgetStatus, reg *core.Registry) []string {
	var out []string

	for _, label := range reg.Labels() {
		cur, prev := current[label], previous[label]
		if !cur.IsPositive() || !prev.IsPositive() {
			continue
		}
		change := percentChange(cur.Amount, prev.Amount)
		switch {
		case change.GreaterThan(ChangeThreshold):
			out = append(out, fmt.Sprintf("You spent %s%% more on %s than last month.", displayPercent(change), label))
		case change.LessThan(ChangeThreshold.Neg()):
			out = append(out, fmt.Sprintf("You spent %s%% less on %s than last month.", displayPercent(change), label))
		}
	}

	if currentSavings.IsPositive() && previousSavings.IsPositive() {
		change := percentChange(currentSavings.Amount, previousSavings.Amount)
		switch {
		case change.GreaterThan(ChangeThreshold):
			out = append(out, fmt.Sprintf("You saved %s%% more than last month.", displayPercent(change)))
		case change.LessThan(ChangeThreshold.Neg()):
			out = append(out, fmt.Sprintf("You saved %s%% less than last month.", displayPercent(change)))
		}
	}

	for _, st := range statuses {
		if st.OverBudget {
			out = append(out, fmt.Sprintf("You're over budget on %s by %s. Consider increasing your %s budget.",
				st.Category, st.ActualAmount.Sub(st.BudgetAmount), st.Category))
		}
	}

	if top, ok := biggestCategory(current, reg); ok {
		msg := fmt.Sprintf("Your biggest expense category this month is %s at %s.", top, current[top])
		out = append([]string{msg}, out...)
	}
	return out
}

// biggestCategory returns the label with the largest positive amount. Ties
// go to the earlier registry label.
func biggestCategory(amounts map[string]core.Money, reg *core.Registry) (string, bool) {
	var (
		best  string
		found bool
	)
	for _, label := range reg.Labels() {
		amt := amounts[label]
		if !amt.IsPositive() {
			continue
		}
		if !found || amt.GreaterThan(amounts[best]) {
			best, found = label, true
		}
	}
	return best, found
}

func percentChange(cur, prev decimal.Decimal) decimal.Decimal {
	return cur.Sub(prev).Div(prev).Mul(hundred)
}

func displayPercent(change decimal.Decimal) string {
	return change.Abs().Round(0).String()
}
