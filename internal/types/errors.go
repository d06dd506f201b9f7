package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope every relay failure is reported in.
// Error holds either the upstream error body (as raw JSON) or a message.
type ErrorResponse struct {
	Error any `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteUpstreamError writes {"error": body}. A JSON body is embedded as-is,
// anything else is embedded as a string.
func WriteUpstreamError(w http.ResponseWriter, status int, body []byte) {
	if json.Valid(body) {
		WriteJSON(w, status, ErrorResponse{Error: json.RawMessage(body)})
		return
	}
	WriteJSON(w, status, ErrorResponse{Error: string(body)})
}
