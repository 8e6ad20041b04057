package users

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the fixed role model of the platform.
type Role string

const (
	RoleStudent     Role = "estudiante"
	RoleCounselor   Role = "orientador"
	RoleInstitution Role = "institucion"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleInstitution, RoleAdmin:
		return true
	}
	return false
}

// RequiresReview reports whether accounts with this role start inactive
// and need an administrator to activate them.
func (r Role) RequiresReview() bool {
	return r == RoleCounselor || r == RoleInstitution
}

// User is the identity record. Email is unique (case-normalized) across
// all users; the password is only ever stored as a bcrypt hash.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	BirthDate    *time.Time
	Phone        string
	Role         Role
	RegisteredAt time.Time
	LastLogin    *time.Time
	Active       bool
}

// StudentProfile is the role-specific extension record for students,
// created at registration and owned by its user.
type StudentProfile struct {
	UserID    uuid.UUID
	CreatedAt time.Time
}

// CounselorProfile is the role-specific extension record for counselors.
type CounselorProfile struct {
	UserID    uuid.UUID
	CreatedAt time.Time
}
