// Package jobs runs background work over Asynq: per-customer ledger
// rebuilds triggered by sale mutations and a nightly sweep that rebuilds
// every customer.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerRebuild reprojects one customer's ledger from their sales.
	TaskLedgerRebuild = "ledger:rebuild"
	// TaskLedgerRebuildAll sweeps every customer. Scheduled nightly as a
	// safety net for rebuilds lost to worker downtime.
	TaskLedgerRebuildAll = "ledger:rebuild_all"
	// TaskIdempotencyCleanup reclaims request keys past retention.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// LedgerRebuildPayload identifies the customer to reproject.
type LedgerRebuildPayload struct {
	CustomerID int64 `json:"customer_id"`
}

// NewLedgerRebuildTask constructs an Asynq task for one customer.
func NewLedgerRebuildTask(customerID int64) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerRebuildPayload{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerRebuild, data, asynq.Queue(QueueDefault)), nil
}

// NewLedgerRebuildAllTask constructs the full-sweep task.
func NewLedgerRebuildAllTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerRebuildAll, nil, asynq.Queue(QueueDefault))
}

// NewIdempotencyCleanupTask constructs the nightly key cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault))
}
