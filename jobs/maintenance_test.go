package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCleaner struct {
	olderThan time.Duration
	calls     int
	err       error
}

func (m *mockCleaner) CleanupIdempotency(_ context.Context, olderThan time.Duration) error {
	m.calls++
	m.olderThan = olderThan
	return m.err
}

func TestHandleIdempotencyCleanup(t *testing.T) {
	cleaner := &mockCleaner{}
	tasks := NewMaintenanceTasks(cleaner, nil)

	err := tasks.HandleIdempotencyCleanup(context.Background(), NewIdempotencyCleanupTask())
	require.NoError(t, err)
	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, idempotencyRetention, cleaner.olderThan)
}

func TestHandleIdempotencyCleanupSurfacesError(t *testing.T) {
	cleaner := &mockCleaner{err: errors.New("pool closed")}
	tasks := NewMaintenanceTasks(cleaner, nil)

	err := tasks.HandleIdempotencyCleanup(context.Background(), NewIdempotencyCleanupTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool closed")
}

func TestMaintenanceHandlersRegisterCleanup(t *testing.T) {
	tasks := NewMaintenanceTasks(&mockCleaner{}, nil)

	handlers := tasks.Handlers()
	require.Len(t, handlers, 1)
	assert.Equal(t, TaskIdempotencyCleanup, handlers[0].Type)
	assert.NotNil(t, handlers[0].Handler)
}
