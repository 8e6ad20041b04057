package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/orienta/backend/pkg/oauth"
)

func TestAuthURL(t *testing.T) {
	c := New("client-id", "client-secret", "https://api.example.com/callback")
	raw := c.AuthURL()

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("auth url does not parse: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://api.example.com/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Fatal("offline access with forced consent prompt is required")
	}
	scope := q.Get("scope")
	for _, want := range []string{"openid", "email", "profile", "calendar.events"} {
		if !strings.Contains(scope, want) {
			t.Fatalf("scope %q missing %q", scope, want)
		}
	}
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.access",
			"refresh_token": "1//refresh",
			"expires_in":    3599,
			"token_type":    "Bearer",
		})
	}))
	defer ts.Close()

	c := New("client-id", "client-secret", "https://api.example.com/callback")
	c.TokenURL = ts.URL

	tokens, err := c.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if tokens.AccessToken != "ya29.access" || tokens.RefreshToken != "1//refresh" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	if gotForm.Get("code") != "auth-code" || gotForm.Get("grant_type") != "authorization_code" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
	if gotForm.Get("client_id") != "client-id" || gotForm.Get("client_secret") != "client-secret" {
		t.Fatal("client credentials missing from exchange form")
	}
}

func TestExchangeUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer ts.Close()

	c := New("client-id", "client-secret", "https://api.example.com/callback")
	c.TokenURL = ts.URL

	_, err := c.Exchange(context.Background(), "stale-code")
	var upstream *oauth.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", upstream.Status)
	}
	if !strings.Contains(upstream.Detail, "invalid_grant") {
		t.Fatalf("detail %q does not echo the provider body", upstream.Detail)
	}
}

func TestUserInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.access" {
			t.Fatalf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "108",
			"email":       "ana@gmail.com",
			"given_name":  "Ana",
			"family_name": "López",
		})
	}))
	defer ts.Close()

	c := New("client-id", "client-secret", "https://api.example.com/callback")
	c.UserInfoURL = ts.URL

	profile, err := c.UserInfo(context.Background(), "ya29.access")
	if err != nil {
		t.Fatalf("user info: %v", err)
	}
	if profile.Email != "ana@gmail.com" || profile.GivenName != "Ana" || profile.FamilyName != "López" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestUserInfoUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer ts.Close()

	c := New("client-id", "client-secret", "https://api.example.com/callback")
	c.UserInfoURL = ts.URL

	_, err := c.UserInfo(context.Background(), "expired")
	var upstream *oauth.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", upstream.Status)
	}
}
