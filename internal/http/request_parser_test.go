package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestParseMonthParam(t *testing.T) {
	def := core.Month{Year: 2024, Month: 3}
	tests := []struct {
		name     string
		query    string
		required bool
		want     core.Month
		wantErr  bool
	}{
		{"absent uses default", "", false, def, false},
		{"absent but required", "", true, core.Month{}, true},
		{"explicit", "month=2023-12", true, core.Month{Year: 2023, Month: 12}, false},
		{"padded", "month=%202023-12%20", false, core.Month{Year: 2023, Month: 12}, false},
		{"invalid", "month=2023-1x", false, core.Month{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParam(q, def, tt.required)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsValidation(err) {
				t.Errorf("error %v should be a validation error", err)
			}
			if got != tt.want {
				t.Errorf("ParseMonthParam() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTransactionRequest(t *testing.T) {
	body := `{"amount":"19.99","date":"2024-01-31","description":"  Streaming\u0007 ","category":"Entertainment",
		"type":"expense","recurring":true,"recurringType":"monthly","recurringEndDate":"2024-06-30"}`
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))

	got, err := ParseTransactionRequest(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("ParseTransactionRequest() error = %v", err)
	}
	if got.Amount.String() != "19.99" || got.Description != "Streaming" || got.Category != "Entertainment" {
		t.Errorf("parsed = %+v", got)
	}
	if !got.Recurring || got.RecurringType != core.Monthly || got.RecurringEndDate == nil || got.RecurringEndDate.String() != "2024-06-30" {
		t.Errorf("recurrence = %v %v %v", got.Recurring, got.RecurringType, got.RecurringEndDate)
	}
}

func TestParseTransactionRequestIgnoresRecurrenceWhenNotRecurring(t *testing.T) {
	body := `{"amount":5,"date":"2024-01-31","description":"x","category":"Food","recurringType":"bogus","recurringEndDate":"nope"}`
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))

	got, err := ParseTransactionRequest(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("ParseTransactionRequest() error = %v", err)
	}
	if got.Recurring || got.RecurringType != core.RecurrenceNone || got.RecurringEndDate != nil {
		t.Errorf("parsed = %+v, want one-off", got)
	}
}

func TestParseRequestBodyTooLarge(t *testing.T) {
	body := `{"description":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))

	_, err := ParseTransactionRequest(httptest.NewRecorder(), r)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("ParseTransactionRequest() error = %v, want too large", err)
	}
}

func TestParseBudgetRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		wantErr bool
	}{
		{"valid number", `{"category":"Food","month":"2024-03","amount":80}`, "", false},
		{"valid zero", `{"category":"Food","month":"2024-03","amount":"0"}`, "", false},
		{"missing category", `{"month":"2024-03","amount":80}`, "category", true},
		{"missing month", `{"category":"Food","amount":80}`, "month", true},
		{"bad month", `{"category":"Food","month":"03-2024","amount":80}`, "month", true},
		{"missing amount", `{"category":"Food","month":"2024-03"}`, "amount", true},
		{"null amount", `{"category":"Food","month":"2024-03","amount":null}`, "amount", true},
		{"signed string amount", `{"category":"Food","month":"2024-03","amount":"-3"}`, "amount", true},
		{"exponent amount", `{"category":"Food","month":"2024-03","amount":1e20000000}`, "amount", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(tt.body))
			_, err := ParseBudgetRequest(httptest.NewRecorder(), r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBudgetRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				ve, ok := err.(*core.ValidationError)
				if !ok || ve.Field != tt.field {
					t.Errorf("error = %#v, want field %q", err, tt.field)
				}
			}
		})
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q, _ := url.ParseQuery("type=INCOME&category=Salary")
	f, err := ParseTransactionFilter(q)
	if err != nil {
		t.Fatalf("ParseTransactionFilter() error = %v", err)
	}
	if f.Type != core.Income || f.Category != "Salary" {
		t.Errorf("filter = %+v", f)
	}

	q, _ = url.ParseQuery("type=gift")
	if _, err := ParseTransactionFilter(q); !core.IsValidation(err) {
		t.Errorf("ParseTransactionFilter(gift) error = %v, want validation error", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
