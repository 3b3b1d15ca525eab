package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// statusResponse is the body returned for every accepted delivery.
type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Zen     string `json:"zen,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
