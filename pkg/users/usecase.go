package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Principal identifies the authenticated requester for policy decisions.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// Page is a limit/offset slice of the user collection with its total count.
type Page struct {
	Count   int
	Results []User
}

// UseCase exposes role-gated CRUD over the user collection.
type UseCase interface {
	List(ctx context.Context, p Principal, query string, limit, offset int) (Page, error)
	Create(ctx context.Context, p Principal, user User, password string) (User, error)
	Get(ctx context.Context, p Principal, id uuid.UUID) (User, error)
	Update(ctx context.Context, p Principal, id uuid.UUID, user User, password string) (User, error)
	UpdatePartial(ctx context.Context, p Principal, id uuid.UUID, fields UpdateFields, password string) (User, error)
	Delete(ctx context.Context, p Principal, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService returns the default UseCase implementation.
func NewService(repo Repository) UseCase { return &service{repo: repo} }

func (s *service) List(ctx context.Context, p Principal, query string, limit, offset int) (Page, error) {
	if !Authorize(p.Role, p.ID, ActionList, uuid.Nil) {
		return Page{}, ErrForbidden
	}
	query = strings.TrimSpace(query)
	count, err := s.repo.Count(ctx, query)
	if err != nil {
		return Page{}, err
	}
	items, err := s.repo.List(ctx, query, limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Count: count, Results: items}, nil
}

func (s *service) Create(ctx context.Context, p Principal, user User, password string) (User, error) {
	if !Authorize(p.Role, p.ID, ActionCreate, uuid.Nil) {
		return User{}, ErrForbidden
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || password == "" {
		return User{}, ErrInvalidInput
	}
	if !user.Role.Valid() {
		user.Role = RoleStudent
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.PasswordHash = string(hash)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, user.ID)
}

func (s *service) Get(ctx context.Context, p Principal, id uuid.UUID) (User, error) {
	if !Authorize(p.Role, p.ID, ActionRetrieve, id) {
		return User{}, ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, p Principal, id uuid.UUID, user User, password string) (User, error) {
	if !Authorize(p.Role, p.ID, ActionUpdate, id) {
		return User{}, ErrForbidden
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.ID = id
	user.RegisteredAt = current.RegisteredAt
	user.LastLogin = current.LastLogin
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return User{}, ErrInvalidInput
	}
	// Только админ может менять роль и статус активации.
	if p.Role != RoleAdmin {
		user.Role = current.Role
		user.Active = current.Active
	}
	if !user.Role.Valid() {
		return User{}, ErrInvalidInput
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	} else {
		user.PasswordHash = current.PasswordHash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdatePartial(ctx context.Context, p Principal, id uuid.UUID, fields UpdateFields, password string) (User, error) {
	if !Authorize(p.Role, p.ID, ActionPartialUpdate, id) {
		return User{}, ErrForbidden
	}
	if p.Role != RoleAdmin {
		fields.Role = nil
		fields.Active = nil
	}
	if fields.Role != nil && !fields.Role.Valid() {
		return User{}, ErrInvalidInput
	}
	if fields.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*fields.Email))
		if normalized == "" {
			return User{}, ErrInvalidInput
		}
		fields.Email = &normalized
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		h := string(hash)
		fields.PasswordHash = &h
	}
	if err := s.repo.UpdatePartial(ctx, id, fields); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	if !Authorize(p.Role, p.ID, ActionDestroy, id) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
