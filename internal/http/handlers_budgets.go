package http

import (
	"net/http"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), currentMonth(s.now), true)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	budgets, err := s.svc.ListBudgets(r.Context(), month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(budgets))
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	b, err := ParseBudgetRequest(w, r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	saved, err := s.svc.UpsertBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	s.events.LogBudgetWritten(r.Context(), saved)
	writeJSON(w, r, http.StatusOK, saved)
}
