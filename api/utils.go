package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/htol/libman/lending"
	"github.com/htol/libman/logger"
	"github.com/htol/libman/repo"
	"github.com/htol/libman/validator"
)

// respondWithJSON sends a JSON response with the given status code
func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// respondWithError logs an error and sends an HTTP error response as JSON
func respondWithError(w http.ResponseWriter, message string, err error, statusCode int) {
	logger.Error(message, "error", err, "status", statusCode)
	respondWithJSON(w, statusCode, map[string]any{
		"error": message,
	})
}

// respondWithValidationError sends a validation error response as JSON
func respondWithValidationError(w http.ResponseWriter, message string) {
	logger.Warn("Validation error", "message", message)
	respondWithJSON(w, http.StatusBadRequest, map[string]any{
		"error": message,
	})
}

// respondWithServiceError maps service and repository errors onto HTTP
// status codes: missing records are 404, conflicting writes and refused
// loans are 409, bad input is 400, everything else is 500. Eligibility
// refusals also carry their reason code.
func respondWithServiceError(w http.ResponseWriter, message string, err error) {
	var notEligible *lending.NotEligibleError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		respondWithError(w, message, err, http.StatusNotFound)
	case errors.As(err, &notEligible):
		logger.Warn(message, "error", err, "reason", notEligible.Reason)
		respondWithJSON(w, http.StatusConflict, map[string]any{
			"error":  message,
			"reason": notEligible.Reason,
		})
	case errors.Is(err, repo.ErrConflict),
		errors.Is(err, repo.ErrInUse),
		errors.Is(err, repo.ErrAlreadyReturned):
		respondWithError(w, message, err, http.StatusConflict)
	case errors.Is(err, validator.ErrInvalidID),
		errors.Is(err, validator.ErrInvalidLetter),
		errors.Is(err, validator.ErrEmptyString),
		validator.IsValidationError(err):
		respondWithValidationError(w, err.Error())
	default:
		respondWithError(w, message, err, http.StatusInternalServerError)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		h.ServeHTTP(w, r)
	})
}

// pathID extracts and validates a positive numeric path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
