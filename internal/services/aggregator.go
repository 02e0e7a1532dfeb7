package services

import (
	"sort"

	"fintrack/internal/core"
)

// Period is the window a summary covers: one calendar month, or everything
// up to the end of a month.
type Period struct {
	Month   core.Month
	AllTime bool
}

// MonthPeriod covers exactly one month.
func MonthPeriod(m core.Month) Period {
	return Period{Month: m}
}

// AllTimeThrough covers recurring occurrences up to the end of m and every
// one-off record regardless of its date.
func AllTimeThrough(m core.Month) Period {
	return Period{Month: m, AllTime: true}
}

// Window returns the [start, end) bounds. All-time periods have a zero start.
func (p Period) Window() (core.Date, core.Date) {
	if p.AllTime {
		return core.Date{}, p.Month.End()
	}
	return p.Month.Start(), p.Month.End()
}

// Contains reports whether d falls inside the window.
func (p Period) Contains(d core.Date) bool {
	start, end := p.Window()
	return !d.Before(start) && d.Before(end)
}

// Occurrence is one materialised transaction. Source is the position of
// the originating record in the fetched list.
type Occurrence struct {
	core.Transaction
	Source int `json:"-"`
}

type (
	CategoryTotal struct {
		Category string     `json:"category"`
		Amount   core.Money `json:"amount"`
	}

	MonthlySpend struct {
		Month  core.Month `json:"month"`
		Amount core.Money `json:"amount"`
	}

	MonthlySavings struct {
		Month   core.Month `json:"month"`
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Savings core.Money `json:"savings"`
	}

	// Summary is the aggregate over one period.
	Summary struct {
		Month        core.Month       `json:"month"`
		AllTime      bool             `json:"allTime"`
		Transactions []Occurrence     `json:"transactions"`
		TotalIncome  core.Money       `json:"totalIncome"`
		TotalExpense core.Money       `json:"totalExpense"`
		NetSavings   core.Money       `json:"netSavings"`
		ByCategory   []CategoryTotal  `json:"byCategory"`
		MonthlySpend []MonthlySpend   `json:"monthlySpend"`
		Savings      []MonthlySavings `json:"savingsSeries"`
	}
)

// CategoryAmounts returns the per-category expense totals as a map.
func (s Summary) CategoryAmounts() map[string]core.Money {
	out := make(map[string]core.Money, len(s.ByCategory))
	for _, ct := range s.ByCategory {
		out[ct.Category] = ct.Amount
	}
	return out
}

// Occurrences materialises the stored records for a period, sorted by date
// descending. Equal dates keep the order of the source records.
func Occurrences(records []core.Transaction, p Period) []Occurrence {
	start, end := p.Window()
	var out []Occurrence
	for i, rec := range records {
		rec = rec.WithDefaults()
		if rec.IsTemplate() {
			for _, occ := range Expand(rec, start, end) {
				out = append(out, Occurrence{Transaction: occ, Source: i})
			}
			continue
		}
		if p.AllTime || p.Contains(rec.Date) {
			out = append(out, Occurrence{Transaction: rec, Source: i})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date.Time) {
			return out[a].Date.After(out[b].Date)
		}
		return out[a].Source < out[b].Source
	})
	return out
}

// Aggregate computes totals, category breakdown and monthly series for a
// period. It never fails; unknown categories fold into the Other label.
func Aggregate(records []core.Transaction, p Period, reg *core.Registry) Summary {
	occs := Occurrences(records, p)
	s := Summary{
		Month:        p.Month,
		AllTime:      p.AllTime,
		Transactions: occs,
	}

	byCategory := make(map[string]core.Money)
	byMonth := make(map[core.Month]*MonthlySavings)
	for _, o := range occs {
		m := o.Date.YearMonth()
		ms, ok := byMonth[m]
		if !ok {
			ms = &MonthlySavings{Month: m}
			byMonth[m] = ms
		}
		switch o.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(o.Amount)
			ms.Income = ms.Income.Add(o.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(o.Amount)
			ms.Expense = ms.Expense.Add(o.Amount)
			cat := reg.Normalize(o.Category)
			byCategory[cat] = byCategory[cat].Add(o.Amount)
		}
	}
	s.NetSavings = s.TotalIncome.Sub(s.TotalExpense)

	for _, label := range reg.Labels() {
		if amt, ok := byCategory[label]; ok && !amt.IsZero() {
			s.ByCategory = append(s.ByCategory, CategoryTotal{Category: label, Amount: amt})
		}
	}

	months := make([]core.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	for _, m := range months {
		ms := byMonth[m]
		ms.Savings = ms.Income.Sub(ms.Expense)
		s.MonthlySpend = append(s.MonthlySpend, MonthlySpend{Month: m, Amount: ms.Expense})
		s.Savings = append(s.Savings, *ms)
	}
	return s
}
