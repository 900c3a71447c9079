package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// IdempotencyCleaner drops expired request keys.
type IdempotencyCleaner interface {
	CleanupIdempotency(ctx context.Context, olderThan time.Duration) error
}

// idempotencyRetention keeps claims long enough to absorb client retries
// before the nightly cleanup reclaims them.
const idempotencyRetention = 24 * time.Hour

// MaintenanceTasks bundles the housekeeping handlers run from cron.
type MaintenanceTasks struct {
	cleaner IdempotencyCleaner
	logger  *slog.Logger
}

// NewMaintenanceTasks constructs the handler set.
func NewMaintenanceTasks(cleaner IdempotencyCleaner, logger *slog.Logger) *MaintenanceTasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceTasks{cleaner: cleaner, logger: logger}
}

// Handlers returns the task registrations for worker setup.
func (t *MaintenanceTasks) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskIdempotencyCleanup, Handler: t.HandleIdempotencyCleanup},
	}
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (t *MaintenanceTasks) HandleIdempotencyCleanup(ctx context.Context, _ *asynq.Task) error {
	if err := t.cleaner.CleanupIdempotency(ctx, idempotencyRetention); err != nil {
		return fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	t.logger.Info("idempotency keys cleaned", slog.Duration("older_than", idempotencyRetention))
	return nil
}
