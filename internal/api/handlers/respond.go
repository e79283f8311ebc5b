package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minquant/stocklens/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain sentinels to HTTP statuses; anything
// else is a generic 500 with the fallback message.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, contracts.ErrDuplicateVersion):
		respondError(w, http.StatusConflict, "report version already exists for this symbol")
	case errors.Is(err, contracts.ErrOrphanReport):
		respondError(w, http.StatusUnprocessableEntity, "instrument does not exist; upsert it first")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
