package http

import (
	"net/http"
	"strconv"

	applog "fintrack/internal/log"
)

const transactionNotFound = "transaction not found"

// handleListTransactions returns stored records, or the expanded occurrences
// of one month when month= or expand=true is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := ParseTransactionFilter(query)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	expand, _ := strconv.ParseBool(query.Get("expand"))
	if query.Get("month") != "" || expand {
		month, err := ParseMonthParam(query, currentMonth(s.now), false)
		if err != nil {
			writeError(w, r, err, "")
			return
		}
		occs, err := s.svc.MonthTransactions(r.Context(), month, filter)
		if err != nil {
			writeError(w, r, err, "")
			return
		}
		writeJSON(w, r, http.StatusOK, nonNil(occs))
		return
	}

	txs, err := s.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTransactionRequest(w, r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	created, err := s.svc.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	s.events.LogTransactionWritten(r.Context(), applog.OpCreate, created)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTransactionRequest(w, r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	updated, err := s.svc.UpdateTransaction(r.Context(), r.PathValue("id"), t)
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	s.events.LogTransactionWritten(r.Context(), applog.OpUpdate, updated)
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentTransaction).InfoContext(r.Context(), "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransactionID, id)
	writeJSON(w, r, http.StatusOK, SuccessBody{Success: true})
}
