package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentiva/rentiva/internal/shared"
)

// UserStore is the authoritative account read this core depends on.
// Implementations return shared.ErrNotFound when no matching row exists,
// which the guard treats differently from a transport failure.
type UserStore interface {
	GetUserRecord(ctx context.Context, userID string) (*UserRecord, error)
}

// PGUserStore implements UserStore against PostgreSQL.
type PGUserStore struct {
	pool *pgxpool.Pool
}

// NewPGUserStore constructs a PostgreSQL-backed user store.
func NewPGUserStore(pool *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{pool: pool}
}

// GetUserRecord fetches the minimal account snapshot the pipeline needs.
func (s *PGUserStore) GetUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	const query = `SELECT id, role, needs_onboarding, is_active, email FROM users WHERE id = $1`
	var rec UserRecord
	var role string
	err := s.pool.QueryRow(ctx, query, userID).Scan(&rec.ID, &role, &rec.NeedsOnboarding, &rec.IsActive, &rec.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rec.Role = Role(role)
	return &rec, nil
}

var _ UserStore = (*PGUserStore)(nil)
