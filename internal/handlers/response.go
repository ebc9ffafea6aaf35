// Package handlers provides HTTP and Lambda handlers for the property
// valuation engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"property-valuation-engine/internal/models"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// publicErrors lists the errors clients may see, with their status codes.
// Only the sentinel's own text is sent; wrapped causes stay in the logs.
var publicErrors = []struct {
	err    error
	status int
}{
	{models.ErrInvalidAccountNumber, http.StatusBadRequest},
	{models.ErrEmptySearchQuery, http.StatusBadRequest},
	{models.ErrInvalidReportKey, http.StatusBadRequest},
	{models.ErrSubjectNotFound, http.StatusNotFound},
	{models.ErrNoComparablesFound, http.StatusNotFound},
	{models.ErrReportNotFound, http.StatusNotFound},
	{models.ErrNoValidComparables, http.StatusUnprocessableEntity},
	{models.ErrIncompleteSubject, http.StatusUnprocessableEntity},
	{models.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{models.ErrReportsDisabled, http.StatusServiceUnavailable},
}

const internalErrorMessage = "Internal server error"

// classifyError returns the status and client-safe message for err.
func classifyError(err error) (int, string) {
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return pe.status, pe.err.Error()
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

// StatusForError maps a domain error to the HTTP status returned to clients.
func StatusForError(err error) int {
	status, _ := classifyError(err)
	return status
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, message := classifyError(err)
	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}
