package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPrune removes expired session rows from postgres.
	TaskSessionPrune = "sessions:prune"
	// TaskRoleCacheReconcile drops stale role-cache keys from Redis.
	TaskRoleCacheReconcile = "authz:cache:reconcile"
)

// SessionPrunePayload parameterises a session prune run.
type SessionPrunePayload struct {
	// Batch bounds how many rows one run deletes; zero means no bound.
	Batch int `json:"batch"`
}

// NewSessionPruneTask constructs an Asynq task.
func NewSessionPruneTask(batch int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPrunePayload{Batch: batch})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data), nil
}

// NewRoleCacheReconcileTask constructs an Asynq task.
func NewRoleCacheReconcileTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskRoleCacheReconcile, nil), nil
}
