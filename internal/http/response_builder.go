package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// JSONResponseBuilder provides a fluent API for writing JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// SuccessBody is returned by deletes.
type SuccessBody struct {
	Success bool `json:"success"`
}

// NewJSONResponse creates a builder with a 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write encodes the body before touching the ResponseWriter so an encoding
// failure can still become a clean 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(b.body); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return err
	}
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, err := w.Write(buf.Bytes())
	return err
}

// writeJSON writes v with status, logging encoding failures.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := NewJSONResponse().Status(status).Body(v).Write(w); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write JSON response", applog.FieldError, err)
	}
}

// writeErrorMessage writes {"error": msg} with status.
func writeErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, ErrorBody{Error: msg})
}

// statusForError maps service errors onto HTTP status codes and the message
// shown to the caller. Storage failures never leak their detail.
func statusForError(err error, notFoundMsg string) (int, string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, notFoundMsg
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError maps err onto a status and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	status, msg := statusForError(err, notFoundMsg)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorType(err),
			applog.FieldError, err)
	}
	writeErrorMessage(w, r, status, msg)
}
