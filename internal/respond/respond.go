// Package respond writes JSON responses for the gateway's own endpoints.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const ContentTypeJSON = "application/json"

// ErrorBody is the {"error": "..."} shape used by every gateway error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}
