package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors used by repository/use cases
var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrForbidden    = errors.New("operation not permitted")
	ErrInvalidInput = errors.New("invalid input")
)

// UpdateFields carries a partial update; nil pointers leave the column
// untouched. PasswordHash must already be hashed by the caller.
type UpdateFields struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	BirthDate    *time.Time
	Phone        *string
	Role         *Role
	Active       *bool
}

// Repository abstracts persistence concerns from the domain layer.
// Implementations must enforce email uniqueness atomically (a database
// constraint, not an application-level check).
type Repository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// GetOrCreateByEmail returns the existing user for email or inserts
	// candidate. It must be race-safe under concurrent callers: the insert
	// is conflict-tolerant and the winner's row is returned.
	GetOrCreateByEmail(ctx context.Context, candidate User) (User, bool, error)
	List(ctx context.Context, query string, limit, offset int) ([]User, error)
	Count(ctx context.Context, query string) (int, error)
	Update(ctx context.Context, user User) error
	UpdatePartial(ctx context.Context, id uuid.UUID, fields UpdateFields) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateStudentProfile(ctx context.Context, userID uuid.UUID) error
	CreateCounselorProfile(ctx context.Context, userID uuid.UUID) error
}
