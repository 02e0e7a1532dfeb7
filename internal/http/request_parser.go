package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// transactionRequest is the wire form of a transaction write. Amount stays
// raw so a number and a numeric string are both accepted.
type transactionRequest struct {
	Amount           json.RawMessage `json:"amount"`
	Date             string          `json:"date"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Type             string          `json:"type"`
	Recurring        bool            `json:"recurring"`
	RecurringType    string          `json:"recurringType"`
	RecurringEndDate string          `json:"recurringEndDate"`
}

type budgetRequest struct {
	Category string          `json:"category"`
	Month    string          `json:"month"`
	Amount   json.RawMessage `json:"amount"`
}

func fieldError(field, msg string) error {
	return &core.ValidationError{Field: field, Message: msg}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fieldError("", "request body too large")
		case errors.Is(err, io.EOF):
			return fieldError("", "request body is empty")
		default:
			return fieldError("", "invalid JSON body")
		}
	}
	return nil
}

func isMissing(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""`
}

func parseAmount(raw json.RawMessage) (core.Money, error) {
	if isMissing(raw) {
		return core.Money{}, fieldError("amount", "is required")
	}
	var m core.Money
	if err := m.UnmarshalJSON(raw); err != nil {
		return core.Money{}, fieldError("amount", "must be a positive number")
	}
	return m, nil
}

// ParseTransactionRequest decodes a create or update body. Registry and
// range checks are left to the service; this only rejects absent or
// unparseable fields.
func ParseTransactionRequest(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Transaction{}, err
	}
	return req.toTransaction()
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	if strings.TrimSpace(req.Date) == "" {
		return core.Transaction{}, fieldError("date", "is required")
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, fieldError("date", "must be formatted as yyyy-MM-dd")
	}

	description := sanitizeInput(req.Description)
	if description == "" {
		return core.Transaction{}, fieldError("description", "is required")
	}
	category := sanitizeInput(req.Category)
	if category == "" {
		return core.Transaction{}, fieldError("category", "is required")
	}

	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, fieldError("type", "must be expense or income")
	}

	t := core.Transaction{
		Amount:      amount,
		Date:        date,
		Description: description,
		Category:    category,
		Type:        txType,
		Recurring:   req.Recurring,
	}

	if req.Recurring {
		rt, err := core.ParseRecurrenceType(req.RecurringType)
		if err != nil {
			return core.Transaction{}, fieldError("recurringType", "must be weekly, monthly or yearly")
		}
		t.RecurringType = rt
		if end := strings.TrimSpace(req.RecurringEndDate); end != "" {
			d, err := core.ParseDate(end)
			if err != nil {
				return core.Transaction{}, fieldError("recurringEndDate", "must be formatted as yyyy-MM-dd")
			}
			t.RecurringEndDate = &d
		}
	}
	return t, nil
}

// ParseBudgetRequest decodes a budget upsert; category, month and amount
// are all required.
func ParseBudgetRequest(w http.ResponseWriter, r *http.Request) (core.Budget, error) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Budget{}, err
	}

	category := sanitizeInput(req.Category)
	if category == "" {
		return core.Budget{}, fieldError("category", "is required")
	}
	if strings.TrimSpace(req.Month) == "" {
		return core.Budget{}, fieldError("month", "is required")
	}
	month, err := core.ParseMonth(strings.TrimSpace(req.Month))
	if err != nil {
		return core.Budget{}, fieldError("month", "must be formatted as yyyy-MM")
	}
	if isMissing(req.Amount) {
		return core.Budget{}, fieldError("amount", "is required")
	}
	var amount core.Money
	if err := amount.UnmarshalJSON(req.Amount); err != nil {
		return core.Budget{}, fieldError("amount", "must be a non-negative number")
	}

	return core.Budget{Category: category, Month: month, Amount: amount}, nil
}

// ParseMonthParam reads ?month=yyyy-MM. When the parameter is absent it
// returns def, or a validation error if required.
func ParseMonthParam(query url.Values, def core.Month, required bool) (core.Month, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		if required {
			return core.Month{}, fieldError("month", "query parameter is required")
		}
		return def, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, fieldError("month", fmt.Sprintf("invalid value %q, expected yyyy-MM", v))
	}
	return m, nil
}

// ParseTransactionFilter reads the type and category list filters.
func ParseTransactionFilter(query url.Values) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return f, fieldError("type", "must be expense or income")
		}
		f.Type = t
	}
	f.Category = sanitizeInput(query.Get("category"))
	return f, nil
}
