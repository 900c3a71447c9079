package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// LedgerRebuilder reprojects customer statements.
type LedgerRebuilder interface {
	Rebuild(ctx context.Context, customerID int64) error
}

// CustomerLister enumerates customer ids for the nightly sweep.
type CustomerLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// LedgerTasks bundles the handlers for ledger projection work.
type LedgerTasks struct {
	rebuilder LedgerRebuilder
	customers CustomerLister
	logger    *slog.Logger
}

// NewLedgerTasks constructs the handler set.
func NewLedgerTasks(rebuilder LedgerRebuilder, customers CustomerLister, logger *slog.Logger) *LedgerTasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerTasks{rebuilder: rebuilder, customers: customers, logger: logger}
}

// Handlers returns the task registrations for worker setup.
func (t *LedgerTasks) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLedgerRebuild, Handler: t.HandleRebuild},
		{Type: TaskLedgerRebuildAll, Handler: t.HandleRebuildAll},
	}
}

// HandleRebuild processes TaskLedgerRebuild tasks.
func (t *LedgerTasks) HandleRebuild(ctx context.Context, task *asynq.Task) error {
	var payload LedgerRebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CustomerID <= 0 {
		return asynq.SkipRetry
	}
	if err := t.rebuilder.Rebuild(ctx, payload.CustomerID); err != nil {
		return fmt.Errorf("rebuild ledger for customer %d: %w", payload.CustomerID, err)
	}
	t.logger.Info("ledger rebuilt", slog.Int64("customer_id", payload.CustomerID))
	return nil
}

// HandleRebuildAll processes the nightly sweep. A failed customer does not
// stop the sweep; the error is reported at the end so Asynq retries.
func (t *LedgerTasks) HandleRebuildAll(ctx context.Context, _ *asynq.Task) error {
	ids, err := t.customers.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}
	var failed int
	for _, id := range ids {
		if err := t.rebuilder.Rebuild(ctx, id); err != nil {
			failed++
			t.logger.Error("ledger sweep rebuild failed", slog.Int64("customer_id", id), slog.Any("error", err))
		}
	}
	t.logger.Info("ledger sweep finished", slog.Int("customers", len(ids)), slog.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("ledger sweep: %d of %d rebuilds failed", failed, len(ids))
	}
	return nil
}
