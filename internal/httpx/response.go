// Package httpx writes the JSON-only API surface. Every response body,
// success or failure, is JSON; errors carry a stable snake_case code
// ("not_found", "conflict", "rate_limited", "validation_failed", ...) that
// clients can switch on, with optional structured details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON marshals payload before touching the status line, so an encode
// failure still yields a well-formed 500 instead of a half-written body.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// headers are gone; nothing left to report to the client
		_ = err
	}
}

// JSONError writes an ErrorResponse with the given code and details.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}
