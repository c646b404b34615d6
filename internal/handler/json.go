package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// maxBodyBytes caps request bodies; every payload here is a handful of fields.
const maxBodyBytes = 64 << 10

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into the given destination. Unknown
// fields are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrMigrationFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err to the client. Server-side failures are
// logged and their details are not echoed back.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		writeError(w, status, err.Error())
	case http.StatusServiceUnavailable:
		logger.Error(op, "error", err)
		writeError(w, status, "storage unavailable")
	default:
		logger.Error(op, "error", err)
		writeError(w, status, "internal server error")
	}
}
