package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation, core.KindRule:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a failure envelope. Internal errors are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusFor(kind)

	if kind == core.KindInternal {
		message := "Internal server error"
		if errors.Is(err, storage.ErrInvalidData) {
			message = "Invalid data"
		}
		logger := log.FromContext(r.Context())
		log.NewStructuredLogger(logger).LogError(r.Context(),
			"Request failed", err, logger.Component(), r.Method+" "+r.URL.Path, log.NewFields())
		writeFailure(w, status, message)
		return
	}
	if kind == core.KindUnavailable {
		slog.WarnContext(r.Context(), "Dependency unavailable",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	writeFailure(w, status, core.MessageOf(err, "Internal server error"))
}
