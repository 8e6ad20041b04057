package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orienta/backend/pkg/oauth"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Requested scopes: identity plus calendar events for the scheduling
// features of the frontend.
var defaultScopes = []string{
	"openid", "email", "profile",
	"https://www.googleapis.com/auth/calendar.events",
}

// Client drives the Google authorization-code flow. No retries are
// performed: provider failures are surfaced to the caller as-is.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthBase     string
	TokenURL     string
	UserInfoURL  string
	httpDo       *http.Client
}

func New(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthBase:     defaultAuthURL,
		TokenURL:     defaultTokenURL,
		UserInfoURL:  defaultUserInfoURL,
		httpDo: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthURL builds the consent URL. access_type=offline plus
// prompt=consent makes Google return a refresh token every time.
func (c *Client) AuthURL() string {
	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", c.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(defaultScopes, " "))
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")
	return c.AuthBase + "?" + params.Encode()
}

// Exchange trades an authorization code for provider tokens via a
// server-to-server form POST.
func (c *Client) Exchange(ctx context.Context, code string) (oauth.TokenSet, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return oauth.TokenSet{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpDo.Do(req)
	if err != nil {
		return oauth.TokenSet{}, &oauth.UpstreamError{Op: "token exchange", Status: http.StatusBadGateway, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return oauth.TokenSet{}, &oauth.UpstreamError{Op: "token exchange", Status: resp.StatusCode, Detail: readBody(resp.Body)}
	}
	var tokens oauth.TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return oauth.TokenSet{}, &oauth.UpstreamError{Op: "token exchange", Status: http.StatusBadGateway, Detail: err.Error()}
	}
	return tokens, nil
}

// UserInfo fetches the provider profile with the obtained access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (oauth.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserInfoURL, nil)
	if err != nil {
		return oauth.Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpDo.Do(req)
	if err != nil {
		return oauth.Profile{}, &oauth.UpstreamError{Op: "user info", Status: http.StatusBadGateway, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return oauth.Profile{}, &oauth.UpstreamError{Op: "user info", Status: resp.StatusCode, Detail: readBody(resp.Body)}
	}
	var profile oauth.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return oauth.Profile{}, &oauth.UpstreamError{Op: "user info", Status: http.StatusBadGateway, Detail: err.Error()}
	}
	return profile, nil
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	return string(data)
}
