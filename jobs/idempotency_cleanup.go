package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskIdempotencyCleanup prunes processed invocation keys.
const TaskIdempotencyCleanup = "idempotency:cleanup"

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cron task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// KeyCleaner removes old idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob processes TaskIdempotencyCleanup tasks.
type IdempotencyCleanupJob struct {
	store  KeyCleaner
	logger *slog.Logger
}

// NewIdempotencyCleanupJob initialises the handler.
func NewIdempotencyCleanupJob(store KeyCleaner, logger *slog.Logger) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{store: store, logger: logger}
}

// Handle deletes keys older than the payload retention.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Retention <= 0 {
		return asynq.SkipRetry
	}
	if err := j.store.Cleanup(ctx, payload.Retention); err != nil {
		j.logger.Error("idempotency cleanup failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", payload.Retention))
	return nil
}
