package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	store := memory.New()
	svc := services.NewFinanceService(store, store, core.DefaultRegistry(), nil)
	srv := NewServer(Options{
		Addr:               ":0",
		Service:            svc,
		Logger:             applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)}),
		RateLimitPerMinute: rateLimit,
		Ready:              store.Ping,
	})
	srv.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing middleware headers: %v", path, rr.Header())
		}
	}

	srv.ready = func(context.Context) error { return errors.New("db down") }
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store = %d, want 503", rr.Code)
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, 60)
	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	cats := decode[[]string](t, rr)
	if len(cats) != 11 || cats[0] != "Food" || cats[10] != "Other" {
		t.Errorf("categories = %v", cats)
	}
}

func TestCreateTransactionStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr string
	}{
		{"valid", `{"amount":42.5,"date":"2024-03-05","description":"Groceries","category":"Food"}`, http.StatusCreated, ""},
		{"string amount", `{"amount":"12,30","date":"2024-03-05","description":"Bus","category":"Transportation","type":"expense"}`, http.StatusCreated, ""},
		{"missing amount", `{"date":"2024-03-05","description":"x","category":"Food"}`, http.StatusBadRequest, "amount: is required"},
		{"missing date", `{"amount":1,"description":"x","category":"Food"}`, http.StatusBadRequest, "date: is required"},
		{"missing description", `{"amount":1,"date":"2024-03-05","category":"Food"}`, http.StatusBadRequest, "description: is required"},
		{"missing category", `{"amount":1,"date":"2024-03-05","description":"x"}`, http.StatusBadRequest, "category: is required"},
		{"unknown category", `{"amount":1,"date":"2024-03-05","description":"x","category":"Pets"}`, http.StatusBadRequest, "unknown category Pets"},
		{"zero amount", `{"amount":0,"date":"2024-03-05","description":"x","category":"Food"}`, http.StatusBadRequest, "amount"},
		{"exponent amount", `{"amount":1e20000000,"date":"2024-03-05","description":"x","category":"Food"}`, http.StatusBadRequest, "amount"},
		{"amount above maximum", `{"amount":1000000000000,"date":"2024-03-05","description":"x","category":"Food"}`, http.StatusBadRequest, "must not exceed 999999999999.99"},
		{"sub-cent amount", `{"amount":"10.005","date":"2024-03-05","description":"x","category":"Food"}`, http.StatusBadRequest, "at most two decimal places"},
		{"bad date", `{"amount":1,"date":"05/03/2024","description":"x","category":"Food"}`, http.StatusBadRequest, "date"},
		{"recurring without type", `{"amount":1,"date":"2024-03-05","description":"x","category":"Food","recurring":true}`, http.StatusBadRequest, "recurringType"},
		{"bad recurrence", `{"amount":1,"date":"2024-03-05","description":"x","category":"Food","recurring":true,"recurringType":"daily"}`, http.StatusBadRequest, "recurringType"},
		{"malformed json", `{"amount":`, http.StatusBadRequest, "invalid JSON body"},
		{"empty body", ``, http.StatusBadRequest, "request body is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 60)
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
			}
			if tt.wantErr != "" {
				if got := decode[ErrorBody](t, rr); !strings.Contains(got.Error, tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", got.Error, tt.wantErr)
				}
				return
			}
			created := decode[core.Transaction](t, rr)
			if created.ID == "" || created.Type != core.Expense {
				t.Errorf("created = %+v", created)
			}
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"100","date":"2024-03-05","description":"Gym","category":"Healthcare","recurring":true,"recurringType":"weekly"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[core.Transaction](t, rr)

	list := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v, want the stored template", list)
	}

	expanded := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/transactions?expand=true", ""))
	if len(expanded) != 4 {
		t.Errorf("expanded March occurrences = %d, want 4", len(expanded))
	}
	if expanded[0].Date.String() != "2024-03-26" {
		t.Errorf("first occurrence = %s, want newest first", expanded[0].Date)
	}

	april := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/transactions?month=2024-04&category=Food", ""))
	if len(april) != 0 {
		t.Errorf("filtered April = %+v, want none", april)
	}

	rr = do(t, srv, http.MethodPut, "/api/transactions/"+created.ID,
		`{"amount":"80","date":"2024-03-05","description":"Gym","category":"Healthcare"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[core.Transaction](t, rr); got.Amount.String() != "80.00" || got.Recurring {
		t.Errorf("updated = %+v", got)
	}

	if rr := do(t, srv, http.MethodGet, "/api/transactions/"+created.ID, ""); rr.Code != http.StatusOK {
		t.Errorf("get status = %d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, "")
	if rr.Code != http.StatusOK || !decode[SuccessBody](t, rr).Success {
		t.Fatalf("delete = %d %s", rr.Code, rr.Body.String())
	}

	for _, tc := range []struct{ method, body string }{
		{http.MethodDelete, ""},
		{http.MethodGet, ""},
		{http.MethodPut, `{"amount":"1","date":"2024-03-05","description":"x","category":"Food"}`},
	} {
		rr := do(t, srv, tc.method, "/api/transactions/"+created.ID, tc.body)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s after delete = %d, want 404", tc.method, rr.Code)
		}
		if got := decode[ErrorBody](t, rr); got.Error != transactionNotFound {
			t.Errorf("%s error = %q", tc.method, got.Error)
		}
	}

	if rr := do(t, srv, http.MethodGet, "/api/transactions?type=transfer", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad type filter = %d, want 400", rr.Code)
	}
}

func TestBudgets(t *testing.T) {
	srv := newTestServer(t, 60)

	if rr := do(t, srv, http.MethodGet, "/api/budgets", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("budgets without month = %d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/budgets?month=March", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("budgets with bad month = %d, want 400", rr.Code)
	}

	for _, body := range []string{
		`{"month":"2024-03","amount":80}`,
		`{"category":"Food","amount":80}`,
		`{"category":"Food","month":"2024-03"}`,
		`{"category":"Pets","month":"2024-03","amount":80}`,
		`{"category":"Food","month":"2024-03","amount":1000000000000}`,
		`{"category":"Food","month":"2024-03","amount":"80.001"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/api/budgets", body); rr.Code != http.StatusBadRequest {
			t.Errorf("POST %s = %d, want 400", body, rr.Code)
		}
	}

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Food","month":"2024-03","amount":"80"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("upsert status = %d: %s", rr.Code, rr.Body.String())
		}
	}
	budgets := decode[[]core.Budget](t, do(t, srv, http.MethodGet, "/api/budgets?month=2024-03", ""))
	if len(budgets) != 1 || budgets[0].Amount.String() != "80.00" {
		t.Errorf("budgets = %+v, want one Food budget", budgets)
	}
	if empty := do(t, srv, http.MethodGet, "/api/budgets?month=2024-04", ""); strings.TrimSpace(empty.Body.String()) != "[]" {
		t.Errorf("empty month body = %q, want []", empty.Body.String())
	}
}

func TestReports(t *testing.T) {
	srv := newTestServer(t, 60)
	do(t, srv, http.MethodPost, "/api/transactions", `{"amount":100,"date":"2024-03-05","description":"Groceries","category":"Food","type":"expense"}`)
	do(t, srv, http.MethodPost, "/api/transactions", `{"amount":1000,"date":"2024-03-01","description":"Pay","category":"Salary","type":"income"}`)
	do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Food","month":"2024-03","amount":80}`)

	summary := decode[summaryResponse](t, do(t, srv, http.MethodGet, "/api/summary?month=2024-03", ""))
	if summary.Current.TotalIncome.String() != "1000.00" || summary.Current.NetSavings.String() != "900.00" {
		t.Errorf("summary = %+v", summary.Current)
	}

	status := decode[budgetStatusResponse](t, do(t, srv, http.MethodGet, "/api/budgets/status?month=2024-03", ""))
	var food services.BudgetStatus
	for _, st := range status.Statuses {
		if st.Category == "Food" {
			food = st
		}
	}
	if !food.OverBudget || food.ProgressRatio != 1.0 {
		t.Errorf("Food status = %+v", food)
	}

	insights := decode[insightsResponse](t, do(t, srv, http.MethodGet, "/api/insights", ""))
	if insights.Month.String() != "2024-03" {
		t.Errorf("default month = %s, want current month 2024-03", insights.Month)
	}
	found := false
	for _, msg := range insights.Insights {
		if strings.Contains(msg, "Consider increasing your Food budget") {
			found = true
		}
	}
	if !found {
		t.Errorf("insights = %q", insights.Insights)
	}

	dash := decode[services.Dashboard](t, do(t, srv, http.MethodGet, "/api/dashboard?month=2024-03", ""))
	if dash.AllTime.TotalExpense.String() != "100.00" || len(dash.Budgets) != 11 {
		t.Errorf("dashboard = %+v", dash)
	}

	if rr := do(t, srv, http.MethodGet, "/api/dashboard?month=2024-13", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid month = %d, want 400", rr.Code)
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	srv := newTestServer(t, 1)
	body := `{"amount":1,"date":"2024-03-05","description":"x","category":"Food"}`

	if rr := do(t, srv, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
		t.Fatalf("first write = %d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write = %d, want 429", rr.Code)
	}
	if !strings.Contains(decode[ErrorBody](t, rr).Error, "rate limit") {
		t.Errorf("429 body = %s", rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/api/transactions", ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, 60)
	rr := do(t, srv, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound || !bytes.Contains(rr.Body.Bytes(), []byte(`"error"`)) {
		t.Errorf("unknown route = %d %s", rr.Code, rr.Body.String())
	}
}
