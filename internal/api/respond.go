package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/koenote/internal/apperr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeServiceError maps domain sentinels to HTTP statuses. Anything
// unmatched is a 500 with no internal detail leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, apperr.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrTranscriptionFailed):
		writeError(w, http.StatusBadGateway, "transcription failed")
	default:
		slog.Error("unhandled error at API boundary", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
