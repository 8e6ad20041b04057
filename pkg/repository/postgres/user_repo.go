package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orienta/backend/pkg/users"
)

const userColumns = `id, email, password_hash, nombre, apellido, fecha_nacimiento, telefono, rol, fecha_registro, ultimo_login, activo`

// UserRepository implements users.Repository backed by PostgreSQL (pgx).
// Email uniqueness is enforced by the database constraint; application
// checks are only a fast path.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) (*UserRepository, error) {
	repo := &UserRepository{pool: pool}
	if err := repo.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *UserRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS usuarios (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			nombre TEXT NOT NULL DEFAULT '',
			apellido TEXT NOT NULL DEFAULT '',
			fecha_nacimiento DATE,
			telefono TEXT NOT NULL DEFAULT '',
			rol TEXT NOT NULL DEFAULT 'estudiante',
			fecha_registro TIMESTAMPTZ NOT NULL,
			ultimo_login TIMESTAMPTZ,
			activo BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE TABLE IF NOT EXISTS perfiles_estudiante (
			usuario_id UUID PRIMARY KEY REFERENCES usuarios(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS perfiles_orientador (
			usuario_id UUID PRIMARY KEY REFERENCES usuarios(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

func scanUser(row pgx.Row) (users.User, error) {
	var u users.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.BirthDate, &u.Phone, &role, &u.RegisteredAt, &u.LastLogin, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	u.Role = users.Role(role)
	u.RegisteredAt = u.RegisteredAt.UTC()
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usuarios (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, user.ID, strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName,
		user.BirthDate, user.Phone, string(user.Role), user.RegisteredAt, user.LastLogin, user.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return users.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM usuarios WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

// GetOrCreateByEmail inserts candidate unless the email already exists,
// then reads back whichever row won. ON CONFLICT DO NOTHING makes the
// insert race-safe under concurrent OAuth callbacks.
func (r *UserRepository) GetOrCreateByEmail(ctx context.Context, candidate users.User) (users.User, bool, error) {
	email := strings.ToLower(candidate.Email)
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO usuarios (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO NOTHING
	`, candidate.ID, email, candidate.PasswordHash, candidate.FirstName, candidate.LastName,
		candidate.BirthDate, candidate.Phone, string(candidate.Role), candidate.RegisteredAt,
		candidate.LastLogin, candidate.Active)
	if err != nil {
		return users.User{}, false, err
	}
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return users.User{}, false, err
	}
	return user, tag.RowsAffected() == 1, nil
}

func (r *UserRepository) List(ctx context.Context, query string, limit, offset int) ([]users.User, error) {
	sql := `SELECT ` + userColumns + ` FROM usuarios`
	args := []any{}
	if query != "" {
		sql += ` WHERE email ILIKE $1 OR nombre ILIKE $1 OR apellido ILIKE $1`
		args = append(args, "%"+query+"%")
	}
	sql += fmt.Sprintf(` ORDER BY fecha_registro DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []users.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context, query string) (int, error) {
	sql := `SELECT COUNT(*) FROM usuarios`
	args := []any{}
	if query != "" {
		sql += ` WHERE email ILIKE $1 OR nombre ILIKE $1 OR apellido ILIKE $1`
		args = append(args, "%"+query+"%")
	}
	var count int
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&count)
	return count, err
}

func (r *UserRepository) Update(ctx context.Context, user users.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE usuarios
		SET email = $2, password_hash = $3, nombre = $4, apellido = $5,
		    fecha_nacimiento = $6, telefono = $7, rol = $8, activo = $9
		WHERE id = $1
	`, user.ID, strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName,
		user.BirthDate, user.Phone, string(user.Role), user.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return users.ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePartial(ctx context.Context, id uuid.UUID, fields users.UpdateFields) error {
	set := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Email != nil {
		add("email", strings.ToLower(*fields.Email))
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	if fields.FirstName != nil {
		add("nombre", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("apellido", *fields.LastName)
	}
	if fields.BirthDate != nil {
		add("fecha_nacimiento", *fields.BirthDate)
	}
	if fields.Phone != nil {
		add("telefono", *fields.Phone)
	}
	if fields.Role != nil {
		add("rol", string(*fields.Role))
	}
	if fields.Active != nil {
		add("activo", *fields.Active)
	}
	if len(set) == 0 {
		return nil
	}
	tag, err := r.pool.Exec(ctx, `UPDATE usuarios SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return users.ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE usuarios SET ultimo_login = $2 WHERE id = $1`, id, time.Now().UTC())
	return err
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE usuarios SET activo = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CreateStudentProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO perfiles_estudiante (usuario_id) VALUES ($1)
		ON CONFLICT (usuario_id) DO NOTHING
	`, userID)
	return err
}

func (r *UserRepository) CreateCounselorProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO perfiles_orientador (usuario_id) VALUES ($1)
		ON CONFLICT (usuario_id) DO NOTHING
	`, userID)
	return err
}
