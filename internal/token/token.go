// Package token mints and validates the opaque access tokens that grant
// unauthenticated client access to a single quote or invoice. A token is the
// sole credential for the public surface: resolution by token is the only
// authorization check, and tokens never expire or rotate.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Tokens are 32 lowercase hex characters (128 bits of entropy).
var pattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Mint returns a new unguessable access token. Tokens are minted exactly once,
// at document creation, and are immutable for the document's lifetime.
func Mint() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// Valid reports whether s has the shape of a minted token. Callers must check
// this before any lookup so malformed input is rejected without touching the
// store.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
