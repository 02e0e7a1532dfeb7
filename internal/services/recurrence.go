// Package services provides the finance pipeline and its orchestration.
//
// This file implements the Strategy Pattern for recurrence expansion. Each
// recurrence type (weekly, monthly, yearly) has its own stepping strategy that
// knows how to walk the schedule and how far it may jump ahead of the anchor
// without skipping an occurrence inside the requested window.
package services

import (
	"fmt"

	"fintrack/internal/core"
)

// Stepper is the strategy interface for walking a recurrence schedule.
type Stepper interface {
	// Step returns the n-th occurrence date counted from the anchor.
	Step(anchor core.Date, n int) core.Date
	// Skip returns a period index k such that every occurrence with an
	// index below k falls strictly before target.
	Skip(anchor, target core.Date) int
}

// WeeklyStepper implements Stepper for weekly schedules.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(anchor core.Date, n int) core.Date {
	return core.Weekly.Step(anchor, n)
}

// Skip returns the number of whole weeks between anchor and target.
func (WeeklyStepper) Skip(anchor, target core.Date) int {
	days := int(target.Sub(anchor.Time).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return days / 7
}

// MonthlyStepper implements Stepper for monthly schedules, clamping the
// day to the end of shorter months.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(anchor core.Date, n int) core.Date {
	return core.Monthly.Step(anchor, n)
}

// Skip stops one month short of the target month, since the clamped day
// inside the target month may still fall before target.
func (MonthlyStepper) Skip(anchor, target core.Date) int {
	months := (target.Year()-anchor.Year())*12 + int(target.Time.Month()) - int(anchor.Time.Month())
	if months <= 1 {
		return 0
	}
	return months - 1
}

// YearlyStepper implements Stepper for yearly schedules.
type YearlyStepper struct{}

func (YearlyStepper) Step(anchor core.Date, n int) core.Date {
	return core.Yearly.Step(anchor, n)
}

func (YearlyStepper) Skip(anchor, target core.Date) int {
	years := target.Year() - anchor.Year()
	if years <= 1 {
		return 0
	}
	return years - 1
}

// steppers maps recurrence types to their strategies. Read-only after init.
var steppers = map[core.RecurrenceType]Stepper{
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepping strategy for a recurrence type.
func GetStepper(rt core.RecurrenceType) (Stepper, error) {
	s, ok := steppers[rt]
	if !ok {
		return nil, fmt.Errorf("no stepper for recurrence type %q", rt)
	}
	return s, nil
}

// Expand returns the occurrences of tmpl inside [windowStart, windowEnd).
//
// Stepping starts at the anchor date and stops once a date reaches windowEnd
// or passes the template's end date. Non-templates yield nothing.
func Expand(tmpl core.Transaction, windowStart, windowEnd core.Date) []core.Transaction {
	if !tmpl.IsTemplate() {
		return nil
	}
	stepper, err := GetStepper(tmpl.RecurringType)
	if err != nil {
		return nil
	}

	bound := windowEnd
	if tmpl.RecurringEndDate != nil && !tmpl.RecurringEndDate.IsZero() {
		bound = *tmpl.RecurringEndDate
	}
	if bound.Before(windowStart) {
		return nil
	}

	var out []core.Transaction
	for n := stepper.Skip(tmpl.Date, windowStart); ; n++ {
		d := stepper.Step(tmpl.Date, n)
		if !d.Before(windowEnd) || d.After(bound) {
			break
		}
		if d.Before(windowStart) {
			continue
		}
		occ := tmpl
		occ.Date = d
		out = append(out, occ)
	}
	return out
}
