package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/royceleh/polly/internal/market"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps the market error taxonomy onto HTTP statuses.
// Sentinel messages are user-facing and written as-is; wrapped storage
// detail stays in the logs.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, market.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrAlreadyVoted), errors.Is(err, market.ErrInsufficientPoints):
		status = http.StatusConflict
	case errors.Is(err, market.ErrStorageFailure):
		status = http.StatusBadGateway
	}
	message := err.Error()
	if errors.Is(err, market.ErrPersistence) {
		message = market.ErrPersistence.Error()
	}
	writeError(w, status, message)
}
