package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vrsandeep/readalong/internal/apperrors"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithAppError maps err onto a status code. Unexpected errors are
// logged and hidden behind a generic message.
func RespondWithAppError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		RespondWithError(w, code, "Internal server error")
		return
	}
	RespondWithError(w, code, apperrors.Reason(err))
}

// StatusFor is the HTTP status for an error from the store, the gateway or
// a reading session.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrTransientSync):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
