package core

import (
	"strings"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// MaxDescriptionLength bounds Transaction.Description.
const MaxDescriptionLength = 200

type (
	TransactionType string

	// Transaction is a stored record. When Recurring is set it is a template
	// for a schedule of occurrences; otherwise it is a single one-off entry.
	Transaction struct {
		ID               string          `json:"id"`
		Amount           Money           `json:"amount"`
		Date             Date            `json:"date"`
		Description      string          `json:"description"`
		Category         string          `json:"category"`
		Type             TransactionType `json:"type"`
		Recurring        bool            `json:"recurring"`
		RecurringType    RecurrenceType  `json:"recurringType,omitempty"`
		RecurringEndDate *Date           `json:"recurringEndDate,omitempty"`
	}

	// Budget is a spending cap for one category in one month.
	Budget struct {
		Category string `json:"category"`
		Month    Month  `json:"month"`
		Amount   Money  `json:"amount"`
	}
)

// ParseTransactionType maps "expense" and "income"; empty defaults to expense.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Expense:
		return Expense, nil
	case Income:
		return Income, nil
	}
	return "", ErrInvalidType
}

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// IsTemplate reports whether t expands into a schedule. A record flagged
// recurring without a recurrence type is treated as a one-off.
func (t Transaction) IsTemplate() bool {
	return t.Recurring && t.RecurringType != RecurrenceNone
}

// WithDefaults fills unset type and category, as legacy records may lack them.
func (t Transaction) WithDefaults() Transaction {
	if t.Type == "" {
		t.Type = Expense
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = CategoryOther
	}
	return t
}

// Normalize prepares a record for writing: defaults the type, trims the
// description and drops recurrence fields on one-off records.
func (t Transaction) Normalize() Transaction {
	if t.Type == "" {
		t.Type = Expense
	}
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if !t.Recurring {
		t.RecurringType = RecurrenceNone
		t.RecurringEndDate = nil
	}
	if t.RecurringEndDate != nil && t.RecurringEndDate.IsZero() {
		t.RecurringEndDate = nil
	}
	return t
}

// Validate checks the write-time invariants of a transaction.
func (t Transaction) Validate(reg *Registry) error {
	if t.Amount.Amount.LessThan(MinAmount) {
		return invalid("amount", "must be at least 0.01")
	}
	if err := validateAmountRange(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return invalid("date", "is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", "is required")
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return invalid("description", "too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid("category", "is required")
	}
	if !reg.Contains(t.Category) {
		return invalid("category", "unknown category "+t.Category)
	}
	if !t.Type.Valid() {
		return invalid("type", "must be expense or income")
	}
	if t.Recurring && t.RecurringType == RecurrenceNone {
		return invalid("recurringType", "is required for recurring transactions")
	}
	if t.RecurringEndDate != nil && t.RecurringEndDate.Before(t.Date) {
		return invalid("recurringEndDate", "must not be before date")
	}
	return nil
}

// Validate checks a budget before upsert.
func (b Budget) Validate(reg *Registry) error {
	if strings.TrimSpace(b.Category) == "" {
		return invalid("category", "is required")
	}
	if !reg.Contains(b.Category) {
		return invalid("category", "unknown category "+b.Category)
	}
	if b.Month.IsZero() {
		return invalid("month", "is required")
	}
	if b.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	return validateAmountRange(b.Amount)
}

func validateAmountRange(m Money) error {
	if m.Amount.GreaterThan(MaxAmount) {
		return invalid("amount", "must not exceed "+MaxAmount.StringFixed(2))
	}
	if !m.HasCentsPrecision() {
		return invalid("amount", "must have at most two decimal places")
	}
	return nil
}
