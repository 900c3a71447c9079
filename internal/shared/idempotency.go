package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates a key that was already processed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore records processed request keys so that a retried
// submission does not create a second sale.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key for scope, failing with
// ErrIdempotencyConflict when it was claimed before.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, scope string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if scope == "" {
		return errors.New("idempotency scope required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, scope, created_at) VALUES ($1, $2, $3)`, key, scope, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Release removes a claimed key so a failed request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// CleanupIdempotency removes keys older than the retention window.
func (s *IdempotencyStore) CleanupIdempotency(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}
