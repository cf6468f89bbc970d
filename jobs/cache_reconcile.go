package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/rentiva/rentiva/internal/authz"
)

// RoleCacheReconcileJob sweeps the durable role-cache tier for entries that
// expired or no longer decode. The in-process tier sweeps itself; this job
// covers keys left behind by instances that shut down uncleanly.
type RoleCacheReconcileJob struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRoleCacheReconcileJob constructs the job.
func NewRoleCacheReconcileJob(client *redis.Client, logger *slog.Logger) *RoleCacheReconcileJob {
	return &RoleCacheReconcileJob{client: client, logger: logger}
}

// Handle processes TaskRoleCacheReconcile tasks.
func (j *RoleCacheReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	now := time.Now()
	removed := 0
	iter := j.client.Scan(ctx, 0, "authz:role:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, "authz:role:") {
			continue
		}
		payload, err := j.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var entry authz.CacheEntry
		if err := json.Unmarshal(payload, &entry); err != nil || entry.Expired(now) {
			if err := j.client.Del(ctx, key).Err(); err == nil {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("reconciled role cache", slog.Int("removed", removed))
	}
	return nil
}
