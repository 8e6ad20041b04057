package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orienta/backend/pkg/oauth"
	"github.com/orienta/backend/pkg/repository/memory"
	"github.com/orienta/backend/pkg/users"
)

type fakeProvider struct {
	profile     oauth.Profile
	exchangeErr error
	userInfoErr error
}

func (p *fakeProvider) AuthURL() string { return "https://accounts.example.com/auth?client_id=x" }

func (p *fakeProvider) Exchange(context.Context, string) (oauth.TokenSet, error) {
	if p.exchangeErr != nil {
		return oauth.TokenSet{}, p.exchangeErr
	}
	return oauth.TokenSet{AccessToken: "g-access", RefreshToken: "g-refresh"}, nil
}

func (p *fakeProvider) UserInfo(context.Context, string) (oauth.Profile, error) {
	if p.userInfoErr != nil {
		return oauth.Profile{}, p.userInfoErr
	}
	return p.profile, nil
}

func newOAuthTest(t *testing.T, provider *fakeProvider) (OAuthUseCase, *memory.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	return NewOAuthService(provider, repo, newFakeTokens(), "http://localhost:5173/"), repo
}

func TestCallbackMissingCode(t *testing.T) {
	svc, _ := newOAuthTest(t, &fakeProvider{})
	if _, err := svc.Callback(context.Background(), ""); !errors.Is(err, ErrMissingCode) {
		t.Fatalf("got %v, want ErrMissingCode", err)
	}
}

func TestCallbackCreatesStudent(t *testing.T) {
	provider := &fakeProvider{profile: oauth.Profile{
		Email:      "Nueva@Gmail.com",
		GivenName:  "Nueva",
		FamilyName: "Cuenta",
	}}
	svc, repo := newOAuthTest(t, provider)

	redirect, err := svc.Callback(context.Background(), "code-123")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}

	user, err := repo.GetByEmail(context.Background(), "nueva@gmail.com")
	if err != nil {
		t.Fatalf("created user not found: %v", err)
	}
	if user.Role != users.RoleStudent || !user.Active {
		t.Fatalf("created user = role %s active %v, want active student", user.Role, user.Active)
	}
	if user.FirstName != "Nueva" || user.LastName != "Cuenta" {
		t.Fatalf("profile names not applied: %+v", user)
	}
	if !repo.HasStudentProfile(user.ID) {
		t.Fatal("student profile was not created")
	}
	if user.LastLogin == nil {
		t.Fatal("ultimo_login was not stamped")
	}

	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("redirect does not parse: %v", err)
	}
	if parsed.Path != "/google/callback" {
		t.Fatalf("redirect path = %q", parsed.Path)
	}
	q := parsed.Query()
	for _, key := range []string{"access", "refresh", "email", "nombre", "apellido", "rol",
		"google_access_token", "google_refresh_token"} {
		if q.Get(key) == "" {
			t.Fatalf("redirect missing %q param: %s", key, redirect)
		}
	}
	if q.Get("google_access_token") != "g-access" || q.Get("google_refresh_token") != "g-refresh" {
		t.Fatal("provider tokens not forwarded")
	}
	if q.Get("rol") != string(users.RoleStudent) {
		t.Fatalf("rol param = %q", q.Get("rol"))
	}
}

func TestCallbackReusesExistingUser(t *testing.T) {
	provider := &fakeProvider{profile: oauth.Profile{
		Email:      "existente@test.com",
		GivenName:  "Otro",
		FamilyName: "Nombre",
	}}
	svc, repo := newOAuthTest(t, provider)

	existing := users.User{
		ID:           uuid.New(),
		Email:        "existente@test.com",
		FirstName:    "Eva",
		LastName:     "Martín",
		Role:         users.RoleCounselor,
		RegisteredAt: time.Now().UTC().Add(-time.Hour),
		Active:       true,
	}
	if err := repo.Create(context.Background(), existing); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	redirect, err := svc.Callback(context.Background(), "code-456")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}

	user, _ := repo.GetByID(context.Background(), existing.ID)
	if user.FirstName != "Eva" || user.Role != users.RoleCounselor {
		t.Fatalf("existing user was modified: %+v", user)
	}
	q, _ := url.Parse(redirect)
	if q.Query().Get("rol") != string(users.RoleCounselor) {
		t.Fatalf("redirect rol = %q, want existing role", q.Query().Get("rol"))
	}
}

func TestCallbackPropagatesUpstreamErrors(t *testing.T) {
	upstream := &oauth.UpstreamError{Op: "token exchange", Status: 400, Detail: "invalid_grant"}
	svc, _ := newOAuthTest(t, &fakeProvider{exchangeErr: upstream})

	_, err := svc.Callback(context.Background(), "bad-code")
	var got *oauth.UpstreamError
	if !errors.As(err, &got) || got.Status != 400 {
		t.Fatalf("expected exchange UpstreamError, got %v", err)
	}

	infoErr := &oauth.UpstreamError{Op: "user info", Status: 401, Detail: "invalid_token"}
	svc, _ = newOAuthTest(t, &fakeProvider{userInfoErr: infoErr})
	_, err = svc.Callback(context.Background(), "good-code")
	if !errors.As(err, &got) || got.Status != 401 {
		t.Fatalf("expected user-info UpstreamError, got %v", err)
	}
}
