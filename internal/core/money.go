// Package core provides money parsing and handling utilities.
//
// Amounts are kept as exact decimals. Aggregation never rounds; rounding to
// two places happens only when an amount is rendered.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinAmount is the smallest amount a transaction may carry.
var MinAmount = decimal.New(1, -2)

// MaxAmount is the largest amount a transaction or budget may carry. It fits
// the NUMERIC(14, 2) column of the postgres backend.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// Parsing limits. They stop exponent forms such as 1e20000000 before any
// arithmetic has to materialise the digits.
const (
	maxAmountText     = 32
	maxAmountExponent = 20
)

// Money is a currency-agnostic decimal amount.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Amount: d}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs and
// thousands separators are rejected. Only magnitude is bounded here;
// Transaction.Validate and Budget.Validate enforce MaxAmount and cents.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: d}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if len(s) > maxAmountText {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// HasCentsPrecision reports whether m has at most two decimal places.
func (m Money) HasCentsPrecision() bool {
	return m.Amount.Equal(m.Amount.Truncate(2))
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount.Sub(o.Amount)}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.Amount.Cmp(o.Amount)
}

func (m Money) GreaterThan(o Money) bool {
	return m.Amount.GreaterThan(o.Amount)
}

func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount)
}

// String renders the amount with two decimal places.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// MarshalJSON emits the two-decimal presentation form as a JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		parsed, err := ParseMoney(strings.Trim(s, `"`))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return err
	}
	m.Amount = d
	return nil
}
