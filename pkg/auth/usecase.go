package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/orienta/backend/pkg/users"
)

// Authentication flow errors.
var (
	ErrMissingCredentials = errors.New("faltan credenciales")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrAccountInactive    = errors.New("tu cuenta está inactiva; un administrador debe activarla antes de ingresar")
)

// Registration confirmation messages, chosen by the activation policy.
const (
	msgPendingReview = "Registro recibido correctamente. Un administrador revisará tus documentos antes de activar tu cuenta."
	msgReadyToLogin  = "Registro exitoso. Ya puedes iniciar sesión."
)

// Compared against when the email is unknown so that the unknown-email
// and wrong-password paths cost the same and fail the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("orienta-dummy-password"), bcrypt.DefaultCost)

// RegisterInput is the untrusted registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      users.Role
	Phone     string
	BirthDate *time.Time
}

// RegisterResult is the created user plus the user-facing outcome message.
type RegisterResult struct {
	User    users.User
	Message string
}

// LoginResult carries the issued pair and a public user summary.
type LoginResult struct {
	User   users.User
	Tokens TokenPair
}

// UseCase describes registration, login and logout behavior.
type UseCase interface {
	Register(ctx context.Context, in RegisterInput) (RegisterResult, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type service struct {
	repo      users.Repository
	tokens    TokenService
	validator *EmailValidator
}

// NewService returns the default implementation of UseCase.
func NewService(repo users.Repository, tokens TokenService, validator *EmailValidator) UseCase {
	if validator == nil {
		validator = NewEmailValidator(nil, false, nil)
	}
	return &service{repo: repo, tokens: tokens, validator: validator}
}

// Register validates the email (shape, disposable domain, optional MX,
// uniqueness; first failure wins), applies the role activation policy
// and creates the user with its role profile.
func (s *service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if in.Email == "" || in.Password == "" {
		return RegisterResult{}, ErrMissingCredentials
	}
	email, err := s.validator.Validate(ctx, in.Email)
	if err != nil {
		return RegisterResult{}, err
	}
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return RegisterResult{}, err
	}
	if exists {
		return RegisterResult{}, ErrDuplicateEmail
	}

	role := in.Role
	if role == "" {
		role = users.RoleStudent
	}
	if !role.Valid() {
		return RegisterResult{}, users.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResult{}, err
	}
	user := users.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		BirthDate:    in.BirthDate,
		Phone:        in.Phone,
		Role:         role,
		RegisteredAt: time.Now().UTC(),
		Active:       !role.RequiresReview(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost the race against a concurrent registration with the same
		// email: the unique constraint is the source of truth.
		if errors.Is(err, users.ErrEmailTaken) {
			return RegisterResult{}, ErrDuplicateEmail
		}
		return RegisterResult{}, err
	}
	switch role {
	case users.RoleStudent:
		err = s.repo.CreateStudentProfile(ctx, user.ID)
	case users.RoleCounselor:
		err = s.repo.CreateCounselorProfile(ctx, user.ID)
	}
	if err != nil {
		return RegisterResult{}, err
	}

	msg := msgReadyToLogin
	if role.RequiresReview() {
		msg = msgPendingReview
	}
	return RegisterResult{User: user, Message: msg}, nil
}

// Login drives the credential flow: verify first, then the activation
// gate, so an inactive account reveals nothing until the password is
// confirmed correct. A successful login stamps ultimo_login.
func (s *service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}
	user, err := s.verify(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !user.Active {
		return LoginResult{}, ErrAccountInactive
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}
	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Tokens: pair}, nil
}

// verify checks email/password against the stored hash. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *service) verify(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return users.User{}, ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return users.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Logout blacklists the refresh token. An already invalid or expired
// token comes back as ErrInvalidToken, which callers report benignly.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidToken
	}
	return s.tokens.Revoke(ctx, refreshToken)
}
