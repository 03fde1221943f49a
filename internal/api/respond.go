package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-order-engine/internal/apperr"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type fieldErrorsResponse struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields"`
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrInvalidOperation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var fieldErrs apperr.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondJSON(w, status, fieldErrorsResponse{Error: "validation failed", Fields: fieldErrs})
		return
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err))
		respondError(w, status, "internal server error")
		return
	}

	respondError(w, status, err.Error())
}
