package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionPruneJob deletes session audit rows whose expiry has passed. Live
// session state is in Redis with its own TTL; the postgres rows exist for
// auditing and only need periodic pruning.
type SessionPruneJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSessionPruneJob constructs the job.
func NewSessionPruneJob(pool *pgxpool.Pool, logger *slog.Logger) *SessionPruneJob {
	return &SessionPruneJob{pool: pool, logger: logger}
}

// Handle processes TaskSessionPrune tasks.
func (j *SessionPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	query := `DELETE FROM sessions WHERE expires_at < $1`
	args := []any{time.Now().UTC()}
	if payload.Batch > 0 {
		query = `DELETE FROM sessions WHERE id IN (SELECT id FROM sessions WHERE expires_at < $1 LIMIT $2)`
		args = append(args, payload.Batch)
	}

	tag, err := j.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("pruned expired sessions", slog.Int64("rows", tag.RowsAffected()))
	}
	return nil
}
