// Package services holds the lifecycle rules for quotes and invoices: status
// transitions, send validations, token resolution and the scheduled
// maintenance passes. Handlers stay thin and translate the error types below
// into HTTP status codes.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers both a missing record and a record the caller may
	// not see. The two cases are deliberately indistinguishable so the
	// public surface never confirms a document's existence.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the suggestion assistant or the public
	// intake endpoint has exhausted its window for the caller.
	ErrRateLimited = errors.New("rate limited")
)

// ConflictError reports an operation attempted against a document whose
// current status does not allow it.
type ConflictError struct {
	Op     string
	Status string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s a %s document", e.Op, e.Status)
}

// ValidationError carries per-field violations for a rejected mutation.
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for field, msg := range e.Violations {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
