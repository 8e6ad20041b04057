package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orienta/backend/pkg/users"
)

// UserRepository is a map-backed users.Repository used in tests and
// local development. The mutex gives the same atomicity the database
// unique constraint provides in the Postgres implementation.
type UserRepository struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]users.User
	students   map[uuid.UUID]users.StudentProfile
	counselors map[uuid.UUID]users.CounselorProfile
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[uuid.UUID]users.User),
		students:   make(map[uuid.UUID]users.StudentProfile),
		counselors: make(map[uuid.UUID]users.CounselorProfile),
	}
}

func (r *UserRepository) findByEmail(email string) (users.User, bool) {
	email = strings.ToLower(email)
	for _, u := range r.byID {
		if u.Email == email {
			return u, true
		}
	}
	return users.User{}, false
}

func (r *UserRepository) Create(_ context.Context, user users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	if _, taken := r.findByEmail(user.Email); taken {
		return users.ErrEmailTaken
	}
	r.byID[user.ID] = user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.findByEmail(email)
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.findByEmail(email)
	return ok, nil
}

func (r *UserRepository) GetOrCreateByEmail(_ context.Context, candidate users.User) (users.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate.Email = strings.ToLower(candidate.Email)
	if existing, ok := r.findByEmail(candidate.Email); ok {
		return existing, false, nil
	}
	r.byID[candidate.ID] = candidate
	return candidate, true, nil
}

func (r *UserRepository) List(_ context.Context, query string, limit, offset int) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.match(query)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RegisteredAt.After(matched[j].RegisteredAt)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *UserRepository) Count(_ context.Context, query string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.match(query)), nil
}

func (r *UserRepository) match(query string) []users.User {
	query = strings.ToLower(query)
	var out []users.User
	for _, u := range r.byID {
		if query == "" ||
			strings.Contains(strings.ToLower(u.Email), query) ||
			strings.Contains(strings.ToLower(u.FirstName), query) ||
			strings.Contains(strings.ToLower(u.LastName), query) {
			out = append(out, u)
		}
	}
	return out
}

func (r *UserRepository) Update(_ context.Context, user users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return users.ErrNotFound
	}
	user.Email = strings.ToLower(user.Email)
	if other, ok := r.findByEmail(user.Email); ok && other.ID != user.ID {
		return users.ErrEmailTaken
	}
	r.byID[user.ID] = user
	return nil
}

func (r *UserRepository) UpdatePartial(_ context.Context, id uuid.UUID, fields users.UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	if fields.Email != nil {
		email := strings.ToLower(*fields.Email)
		if other, ok := r.findByEmail(email); ok && other.ID != id {
			return users.ErrEmailTaken
		}
		u.Email = email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if fields.FirstName != nil {
		u.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		u.LastName = *fields.LastName
	}
	if fields.BirthDate != nil {
		u.BirthDate = fields.BirthDate
	}
	if fields.Phone != nil {
		u.Phone = *fields.Phone
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	if fields.Active != nil {
		u.Active = *fields.Active
	}
	r.byID[id] = u
	return nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	r.byID[id] = u
	return nil
}

func (r *UserRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	u.Active = active
	r.byID[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.students, id)
	delete(r.counselors, id)
	return nil
}

func (r *UserRepository) CreateStudentProfile(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[userID] = users.StudentProfile{UserID: userID, CreatedAt: time.Now().UTC()}
	return nil
}

func (r *UserRepository) CreateCounselorProfile(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counselors[userID] = users.CounselorProfile{UserID: userID, CreatedAt: time.Now().UTC()}
	return nil
}

// HasStudentProfile reports whether a student profile exists for userID.
func (r *UserRepository) HasStudentProfile(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.students[userID]
	return ok
}

// HasCounselorProfile reports whether a counselor profile exists for userID.
func (r *UserRepository) HasCounselorProfile(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.counselors[userID]
	return ok
}
