package jwt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orienta/backend/pkg/auth"
	"github.com/orienta/backend/pkg/repository/memory"
	"github.com/orienta/backend/pkg/users"
)

func testUser() users.User {
	return users.User{
		ID:        uuid.New(),
		Email:     "ana@uni.edu",
		FirstName: "Ana",
		LastName:  "López",
		Role:      users.RoleStudent,
		Active:    true,
	}
}

func newTestService(rotate bool) *Service {
	return NewService("secret", "orienta-test", time.Hour, 24*time.Hour, rotate, memory.NewBlacklist())
}

func TestIssuePairClaimsRoundTrip(t *testing.T) {
	svc := newTestService(false)
	user := testUser()

	pair, err := svc.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected non-empty access and refresh tokens")
	}

	claims, err := svc.Parse(pair.Access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("token_type = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
	if claims.Subject != user.ID.String() || claims.UserID != user.ID.String() {
		t.Fatalf("subject/id mismatch: sub=%q id=%q", claims.Subject, claims.UserID)
	}
	if claims.Email != user.Email || claims.FirstName != user.FirstName ||
		claims.LastName != user.LastName || claims.Role != string(user.Role) || !claims.Active {
		t.Fatalf("custom claims do not match user: %+v", claims)
	}

	refreshClaims, err := svc.Parse(pair.Refresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refreshClaims.TokenType != TokenTypeRefresh {
		t.Fatalf("refresh token_type = %q", refreshClaims.TokenType)
	}
	if refreshClaims.ID == claims.ID {
		t.Fatal("access and refresh tokens share a jti")
	}
}

func TestRefreshIssuesNewAccess(t *testing.T) {
	svc := newTestService(false)
	pair, err := svc.IssuePair(context.Background(), testUser())
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Access == "" {
		t.Fatal("expected a new access token")
	}
	if refreshed.Refresh != "" {
		t.Fatal("refresh token rotated while rotation is disabled")
	}
	if _, err := svc.Parse(refreshed.Access); err != nil {
		t.Fatalf("new access token does not parse: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(false)
	pair, _ := svc.IssuePair(context.Background(), testUser())
	if _, err := svc.Refresh(context.Background(), pair.Access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRevokeBlocksFurtherRefresh(t *testing.T) {
	svc := newTestService(false)
	pair, _ := svc.IssuePair(context.Background(), testUser())

	if err := svc.Revoke(context.Background(), pair.Refresh); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("refresh after revoke: got %v, want ErrInvalidToken", err)
	}
	// Revoking again reports the token as already invalid.
	if err := svc.Revoke(context.Background(), pair.Refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("second revoke: got %v, want ErrInvalidToken", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(false)
	pair, _ := svc.IssuePair(context.Background(), testUser())

	svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	if _, err := svc.Parse(pair.Access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}
	if err := svc.Revoke(context.Background(), pair.Refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("revoking an expired token should be benign-invalid, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := newTestService(false)
	other := NewService("other-secret", "orienta-test", time.Hour, 24*time.Hour, false, memory.NewBlacklist())
	pair, _ := other.IssuePair(context.Background(), testUser())

	if _, err := svc.Parse(pair.Access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("token signed with a different secret parsed: %v", err)
	}
}

func TestRotationReturnsFreshRefresh(t *testing.T) {
	svc := newTestService(true)
	pair, _ := svc.IssuePair(context.Background(), testUser())

	refreshed, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Refresh == "" {
		t.Fatal("expected a rotated refresh token")
	}
	claims, err := svc.Parse(refreshed.Refresh)
	if err != nil {
		t.Fatalf("rotated refresh does not parse: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Fatalf("rotated token_type = %q", claims.TokenType)
	}
}
