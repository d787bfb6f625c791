package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitease/splitease/internal/auth"
	"github.com/splitease/splitease/internal/ledger"
	"github.com/splitease/splitease/internal/storage"
)

// errForbidden marks requests the authenticated user is not allowed to make.
var errForbidden = errors.New("forbidden")

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMappedError translates domain errors into HTTP statuses. Unknown
// errors become opaque 500s so internals never leak to clients.
func respondMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, ledger.ErrNoParticipants),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrEmptyAllocation),
		errors.Is(err, ledger.ErrShareMismatch),
		errors.Is(err, ledger.ErrInvalidSplit):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
