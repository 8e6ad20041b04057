package auth

import (
	"context"
	"errors"

	"github.com/orienta/backend/pkg/users"
)

// ErrInvalidToken covers malformed, expired, mistyped and blacklisted
// tokens alike; callers get no hint which one it was.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPair is an access/refresh token couple. Refresh is empty on
// refresh responses unless rotation is enabled.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenService abstracts token issuance and lifecycle (e.g., JWT).
// It allows use cases to stay framework-agnostic.
type TokenService interface {
	IssuePair(ctx context.Context, user users.User) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
}
