package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type summaryResponse struct {
	Month   core.Month       `json:"month"`
	AllTime services.Summary `json:"allTime"`
	Current services.Summary `json:"current"`
}

type budgetStatusResponse struct {
	Month    core.Month              `json:"month"`
	Statuses []services.BudgetStatus `json:"budgets"`
}

type insightsResponse struct {
	Month    core.Month `json:"month"`
	Insights []string   `json:"insights"`
}

// reportMonth reads the optional month parameter, defaulting to the current month.
func (s *Server) reportMonth(w http.ResponseWriter, r *http.Request) (core.Month, bool) {
	month, err := ParseMonthParam(r.URL.Query(), currentMonth(s.now), false)
	if err != nil {
		writeError(w, r, err, "")
		return core.Month{}, false
	}
	return month, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	allTime, current, err := s.svc.Summaries(r.Context(), month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, summaryResponse{Month: month, AllTime: allTime, Current: current})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, budgetStatusResponse{Month: month, Statuses: d.Budgets})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, insightsResponse{Month: month, Insights: nonNil(d.Insights)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}
