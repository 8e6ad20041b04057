package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/orienta/backend/pkg/repository/memory"
	"github.com/orienta/backend/pkg/users"
)

// fakeTokens tracks issued and revoked refresh tokens in memory.
type fakeTokens struct {
	issued  int
	valid   map[string]bool
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{valid: map[string]bool{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) IssuePair(context.Context, users.User) (TokenPair, error) {
	f.issued++
	refresh := fmt.Sprintf("refresh-%d", f.issued)
	f.valid[refresh] = true
	return TokenPair{Access: fmt.Sprintf("access-%d", f.issued), Refresh: refresh}, nil
}

func (f *fakeTokens) Refresh(_ context.Context, refresh string) (TokenPair, error) {
	if !f.valid[refresh] || f.revoked[refresh] {
		return TokenPair{}, ErrInvalidToken
	}
	f.issued++
	return TokenPair{Access: fmt.Sprintf("access-%d", f.issued)}, nil
}

func (f *fakeTokens) Revoke(_ context.Context, refresh string) error {
	if !f.valid[refresh] || f.revoked[refresh] {
		return ErrInvalidToken
	}
	f.revoked[refresh] = true
	return nil
}

func newTestService(t *testing.T) (UseCase, *memory.UserRepository, *fakeTokens) {
	t.Helper()
	repo := memory.NewUserRepository()
	tokens := newFakeTokens()
	return NewService(repo, tokens, NewEmailValidator(nil, false, nil)), repo, tokens
}

func register(t *testing.T, svc UseCase, email string, role users.Role) RegisterResult {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ana",
		LastName:  "López",
		Email:     email,
		Password:  "Secret123",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("register %s (%s): %v", email, role, err)
	}
	return result
}

func TestRegisterStudentThenLogin(t *testing.T) {
	svc, repo, _ := newTestService(t)

	result := register(t, svc, "a@test.com", users.RoleStudent)
	if !result.User.Active {
		t.Fatal("student should register active")
	}
	if result.Message == "" {
		t.Fatal("expected a confirmation message")
	}
	if !repo.HasStudentProfile(result.User.ID) {
		t.Fatal("student profile was not created")
	}

	login, err := svc.Login(context.Background(), "a@test.com", "Secret123")
	if err != nil {
		t.Fatalf("login after register: %v", err)
	}
	if login.Tokens.Access == "" || login.Tokens.Refresh == "" {
		t.Fatal("login returned empty tokens")
	}
	if !login.User.Active {
		t.Fatal("login user summary should be active")
	}
	if login.User.LastLogin == nil {
		// Login reads the user before stamping; re-read for the stamp.
		stored, _ := repo.GetByID(context.Background(), login.User.ID)
		if stored.LastLogin == nil {
			t.Fatal("ultimo_login was not stamped")
		}
	}
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc, _, _ := newTestService(t)
	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "b@test.com",
		Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("register without role: %v", err)
	}
	if result.User.Role != users.RoleStudent {
		t.Fatalf("default role = %s, want %s", result.User.Role, users.RoleStudent)
	}
	if !result.User.Active {
		t.Fatal("default student should be active")
	}
}

func TestReviewedRolesStartInactive(t *testing.T) {
	for _, role := range []users.Role{users.RoleCounselor, users.RoleInstitution} {
		t.Run(string(role), func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			email := "c@test.com"

			result := register(t, svc, email, role)
			if result.User.Active {
				t.Fatalf("%s should register inactive", role)
			}

			// Correct credentials, but the account still awaits review.
			_, err := svc.Login(context.Background(), email, "Secret123")
			if !errors.Is(err, ErrAccountInactive) {
				t.Fatalf("login before activation: got %v, want ErrAccountInactive", err)
			}

			// Admin activation unblocks the login.
			if err := repo.SetActive(context.Background(), result.User.ID, true); err != nil {
				t.Fatalf("activate: %v", err)
			}
			if _, err := svc.Login(context.Background(), email, "Secret123"); err != nil {
				t.Fatalf("login after activation: %v", err)
			}
		})
	}
}

func TestCounselorProfileCreated(t *testing.T) {
	svc, repo, _ := newTestService(t)
	result := register(t, svc, "o@test.com", users.RoleCounselor)
	if !repo.HasCounselorProfile(result.User.ID) {
		t.Fatal("counselor profile was not created")
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "dup@test.com", users.RoleStudent)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dup@test.com",
		Password: "Other456",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("second register: got %v, want ErrDuplicateEmail", err)
	}

	// Case only differs by email casing: still a duplicate.
	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "DUP@test.com",
		Password: "Other456",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("case-variant register: got %v, want ErrDuplicateEmail", err)
	}
}

func TestDisposableDomainRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "x@yopmail.com",
		Password: "Secret123",
	})
	if !errors.Is(err, ErrDisposableDomain) {
		t.Fatalf("got %v, want ErrDisposableDomain", err)
	}
}

func TestLoginEnumerationResistance(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "known@test.com", users.RoleStudent)

	_, wrongPassword := svc.Login(context.Background(), "known@test.com", "not-the-password")
	_, unknownEmail := svc.Login(context.Background(), "nobody@test.com", "whatever")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatal("wrong-password and unknown-email must be indistinguishable")
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), "", "pass"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("missing email: got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@test.com", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("missing password: got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _, tokens := newTestService(t)
	register(t, svc, "out@test.com", users.RoleStudent)
	login, err := svc.Login(context.Background(), "out@test.com", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), login.Tokens.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := tokens.Refresh(context.Background(), login.Tokens.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh after logout: got %v, want ErrInvalidToken", err)
	}
	// A second logout reports the token as already invalid.
	if err := svc.Logout(context.Background(), login.Tokens.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second logout: got %v, want ErrInvalidToken", err)
	}
}

func TestLogoutEmptyToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Logout(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}
