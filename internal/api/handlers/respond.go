package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/areascore/internal/scoring"
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

// isNotFound reports whether err means nothing has been produced yet
func isNotFound(err error) bool {
	return errors.Is(err, ErrNoResults) || errors.Is(err, scoring.ErrNoScores)
}
