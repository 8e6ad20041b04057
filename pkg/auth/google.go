package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orienta/backend/pkg/oauth"
	"github.com/orienta/backend/pkg/users"
)

// ErrMissingCode is returned by the callback when the provider did not
// send an authorization code.
var ErrMissingCode = errors.New("missing authorization code")

// OAuthUseCase drives the two-phase external login flow and links the
// provider identity to a local user by email.
type OAuthUseCase interface {
	AuthURL() string
	Callback(ctx context.Context, code string) (string, error)
}

type oauthService struct {
	provider    oauth.Provider
	repo        users.Repository
	tokens      TokenService
	frontendURL string
}

// NewOAuthService returns the default OAuthUseCase. frontendURL is
// where the callback redirects with the issued tokens.
func NewOAuthService(provider oauth.Provider, repo users.Repository, tokens TokenService, frontendURL string) OAuthUseCase {
	return &oauthService{
		provider:    provider,
		repo:        repo,
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *oauthService) AuthURL() string { return s.provider.AuthURL() }

// Callback exchanges the code, fetches the profile and gets-or-creates
// the local user keyed by email: an existing account is reused
// unchanged, a new one defaults to an active student. It returns the
// frontend redirect URL carrying local and provider tokens.
func (s *oauthService) Callback(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrMissingCode
	}
	providerTokens, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	profile, err := s.provider.UserInfo(ctx, providerTokens.AccessToken)
	if err != nil {
		return "", err
	}

	candidate := users.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(profile.Email)),
		FirstName:    profile.GivenName,
		LastName:     profile.FamilyName,
		Role:         users.RoleStudent,
		RegisteredAt: time.Now().UTC(),
		Active:       true,
	}
	user, created, err := s.repo.GetOrCreateByEmail(ctx, candidate)
	if err != nil {
		return "", err
	}
	if created && user.Role == users.RoleStudent {
		if err := s.repo.CreateStudentProfile(ctx, user.ID); err != nil {
			return "", err
		}
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return "", err
	}
	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("access", pair.Access)
	params.Set("refresh", pair.Refresh)
	params.Set("email", user.Email)
	params.Set("nombre", user.FirstName)
	params.Set("apellido", user.LastName)
	params.Set("rol", string(user.Role))
	params.Set("google_access_token", providerTokens.AccessToken)
	params.Set("google_refresh_token", providerTokens.RefreshToken)
	return s.frontendURL + "/google/callback?" + params.Encode(), nil
}
