package oauth

import (
	"context"
	"fmt"
)

// TokenSet contains tokens received from the provider.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Profile is the identity profile fetched from the provider.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Provider is a minimal abstraction over an authorization-code OAuth2
// provider. It intentionally hides concrete providers to preserve
// dependency direction.
type Provider interface {
	// AuthURL builds the provider authorization URL for client-side
	// redirection. No local state is created.
	AuthURL() string
	Exchange(ctx context.Context, code string) (TokenSet, error)
	UserInfo(ctx context.Context, accessToken string) (Profile, error)
}

// UpstreamError reports a provider-side failure with its HTTP status
// and response detail. Network errors carry status 502.
type UpstreamError struct {
	Op     string
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: http %d: %s", e.Op, e.Status, e.Detail)
}
