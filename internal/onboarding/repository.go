package onboarding

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentiva/rentiva/internal/platform/db"
	"github.com/rentiva/rentiva/internal/shared"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CompleteOnboarding flips the account into its final role and stores the
// profile row in one transaction.
func (r *PGRepository) CompleteOnboarding(ctx context.Context, userID, role, phone string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		tag, err := tx.Exec(ctx,
			`UPDATE users SET role = $2, needs_onboarding = FALSE, updated_at = $3 WHERE id = $1 AND needs_onboarding = TRUE`,
			userID, role, now,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO profiles (user_id, phone, created_at) VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone`,
			userID, phone, now,
		)
		return err
	})
}

var _ Repository = (*PGRepository)(nil)
