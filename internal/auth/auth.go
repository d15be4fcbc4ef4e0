// Package auth resolves bearer tokens into user identities.
package auth

import (
	"context"
	"errors"

	"ragsearch/internal/model"
)

var (
	// ErrUnauthorized means the token is missing, invalid, expired, or carries no user id.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable means the identity provider could not be reached.
	ErrUnavailable = errors.New("auth service unavailable")
)

// Verifier checks a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.UserIdentity, error)
}
