package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"service-enrollment/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps engine errors onto HTTP statuses. Storage
// failures get a generic body so internals never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrNotEnrolled):
		writeError(w, http.StatusNotFound, "Not enrolled in this course")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "Course is full")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		writeError(w, http.StatusBadRequest, "Already enrolled")
	case errors.Is(err, service.ErrTimeConflict):
		var conflict *service.TimeConflictError
		if errors.As(err, &conflict) {
			writeError(w, http.StatusBadRequest, "Time conflict with "+conflict.CourseName)
			return
		}
		writeError(w, http.StatusBadRequest, "Time conflict")
	case errors.Is(err, service.ErrInvalidGrade):
		writeError(w, http.StatusBadRequest, "Invalid grade value")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict")
	case service.IsRetryable(err):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Temporarily unavailable, retry")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func parseID(value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
