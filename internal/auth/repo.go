package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentiva/rentiva/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error)
	CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id, email, name, password_hash, role, needs_onboarding, is_active, created_at, updated_at
FROM users WHERE email = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.Role, &user.NeedsOnboarding, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a fresh pending account.
func (r *PGRepository) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	const query = `INSERT INTO users (id, email, name, password_hash, role, needs_onboarding, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', TRUE, TRUE, $5, $5)
RETURNING id, email, name, password_hash, role, needs_onboarding, is_active, created_at, updated_at`
	now := time.Now().UTC()
	var user User
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), email, name, passwordHash, now).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.Role, &user.NeedsOnboarding, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapCreateUserError(err)
	}
	return &user, nil
}

// mapCreateUserError turns the unique-email constraint violation into the
// duplicate-email sentinel; every other error passes through unchanged.
func mapCreateUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key" {
		return shared.ErrDuplicateEmail
	}
	return err
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	const query = `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`
	_, err := r.pool.Exec(ctx, query, id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
