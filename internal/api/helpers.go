package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the body of successful mutations and the health check.
type StatusResponse struct {
	Status string `json:"status"`
}

// WriteError sends a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, ErrorResponse{Error: message})
}

// WriteJSON sends a JSON success response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeText sends a plain-text body. Malformed requests get the raw error.
func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, text)
}

// notFound sends a 404 with an empty body.
func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}
