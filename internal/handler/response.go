package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT BODY FORMAT:
// Every API response carries a "status" field. On success it is "ok" and
// the payload sits alongside it:
//   {"status": "ok", "result": {...}}
// On failure it is the human-readable message and nothing else:
//   {"status": "session expired"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/teamrsvp/internal/apperror"
)

// StatusOK is the status value of every successful API response.
const StatusOK = "ok"

// StatusResponse is the body of every API error response.
type StatusResponse struct {
	Status string `json:"status"`
}

// ResultResponse wraps the stored event returned by mutating endpoints.
type ResultResponse struct {
	Status string `json:"status"`
	Result any    `json:"result"`
	ID     string `json:"id,omitempty"`
}

// writtenReporter is implemented by the logging middleware's writer.
type writtenReporter interface {
	Written() bool
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and the status code must be set BEFORE the body is written.
// Once Encode writes the first byte, the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, the headers are already sent: we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and a {"status": msg}
// body.
//
// ERROR MAPPING:
//
//	ErrValidation     → 400
//	ErrUnauthorized   → 403
//	ErrNotFound       → 404
//	ErrNotImplemented → 501
//	ErrUpstream       → 500 with the AppError's message
//	anything else     → 500 "internal error"
//
// NEVER TWICE:
// If a response is already on its way out (w reports Written), the error is
// only logged. Writing again would corrupt what the client already received.
func writeError(w http.ResponseWriter, err error) {
	if wr, ok := w.(writtenReporter); ok && wr.Written() {
		slog.Error("error after response was written", slog.String("error", err.Error()))
		return
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error: NEVER expose internal details to the client.
		slog.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrNotImplemented):
		status = http.StatusNotImplemented
	}

	writeJSON(w, status, StatusResponse{Status: appErr.Message})
}
