package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when a bearer token is malformed, expired, or rejected.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller behind a bearer token.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// Verifier exchanges a bearer token for a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
