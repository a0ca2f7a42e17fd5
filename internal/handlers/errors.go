// Package handlers is the HTTP layer. Handlers decode requests, call into
// the service layer, and translate its error types into status codes;
// lifecycle rules live in the services package.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/services"
)

// writeServiceError maps service errors onto the response contract:
// unknown/unowned is 404, exhausted quota is 429, a status that forbids the
// operation is 409, a rejected payload is 400, anything else is 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	var cerr *services.ConflictError
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrRateLimited):
		httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
	case errors.As(err, &cerr):
		httpx.JSONError(w, http.StatusConflict, "conflict", cerr.Error())
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
	default:
		log.Printf("handler error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
