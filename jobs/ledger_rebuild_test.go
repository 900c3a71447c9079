package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRebuilder struct {
	rebuilt []int64
	failFor map[int64]error
}

func (m *mockRebuilder) Rebuild(_ context.Context, customerID int64) error {
	if err := m.failFor[customerID]; err != nil {
		return err
	}
	m.rebuilt = append(m.rebuilt, customerID)
	return nil
}

type mockLister struct {
	ids []int64
}

func (m *mockLister) ListIDs(_ context.Context) ([]int64, error) {
	return m.ids, nil
}

func TestHandleRebuild(t *testing.T) {
	rebuilder := &mockRebuilder{}
	tasks := NewLedgerTasks(rebuilder, &mockLister{}, nil)

	task, err := NewLedgerRebuildTask(3)
	require.NoError(t, err)

	var payload LedgerRebuildPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(3), payload.CustomerID)

	require.NoError(t, tasks.HandleRebuild(context.Background(), task))
	assert.Equal(t, []int64{3}, rebuilder.rebuilt)
}

func TestHandleRebuildSkipsBadPayload(t *testing.T) {
	tasks := NewLedgerTasks(&mockRebuilder{}, &mockLister{}, nil)

	err := tasks.HandleRebuild(context.Background(), asynq.NewTask(TaskLedgerRebuild, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err2 := NewLedgerRebuildTask(0)
	require.NoError(t, err2)
	assert.ErrorIs(t, tasks.HandleRebuild(context.Background(), task), asynq.SkipRetry)
}

func TestHandleRebuildAllContinuesPastFailures(t *testing.T) {
	rebuilder := &mockRebuilder{failFor: map[int64]error{2: errors.New("boom")}}
	tasks := NewLedgerTasks(rebuilder, &mockLister{ids: []int64{1, 2, 3}}, nil)

	err := tasks.HandleRebuildAll(context.Background(), NewLedgerRebuildAllTask())
	require.Error(t, err)
	assert.Equal(t, []int64{1, 3}, rebuilder.rebuilt)
}
