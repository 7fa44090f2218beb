package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupHandlerExecute(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	oldFinished := &Task{
		ID: uuid.New(), Type: "work", Payload: json.RawMessage(`{}`),
		State: StateFinished, ScheduledAt: old, CreatedAt: old, UpdatedAt: old,
	}
	oldFailed := &Task{
		ID: uuid.New(), Type: "work", Payload: json.RawMessage(`{}`),
		State: StateFailed, ScheduledAt: old, CreatedAt: old, UpdatedAt: old,
	}
	recentFinished := &Task{
		ID: uuid.New(), Type: "work", Payload: json.RawMessage(`{}`),
		State: StateFinished, ScheduledAt: old, CreatedAt: old,
		UpdatedAt: time.Now().UTC(),
	}
	oldPending := &Task{
		ID: uuid.New(), Type: "work", Payload: json.RawMessage(`{}`),
		State: StateNew, ScheduledAt: old, CreatedAt: old, UpdatedAt: old,
	}
	for _, task := range []*Task{oldFinished, oldFailed, recentFinished, oldPending} {
		require.NoError(t, store.Enqueue(ctx, task))
	}

	h, err := NewCleanupHandler(store, 24*time.Hour, "", discardLogger())
	require.NoError(t, err)

	require.NoError(t, h.Execute(ctx, nil))

	assert.Nil(t, store.Snapshot(oldFinished.ID))
	assert.Nil(t, store.Snapshot(oldFailed.ID))
	assert.NotNil(t, store.Snapshot(recentFinished.ID), "recent terminal task must survive")
	assert.NotNil(t, store.Snapshot(oldPending.ID), "pending task must survive regardless of age")
}

func TestCleanupHandlerStoreFailureIsInfrastructure(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.FailWith = assert.AnError

	h, err := NewCleanupHandler(store, 24*time.Hour, "", discardLogger())
	require.NoError(t, err)

	execErr := h.Execute(context.Background(), nil)
	require.Error(t, execErr)
	assert.True(t, IsInfrastructure(execErr))
}

func TestCleanupHandlerConstructorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewCleanupHandler(nil, time.Hour, "", discardLogger())
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = NewCleanupHandler(NewMemoryStore(), 0, "", discardLogger())
	assert.Error(t, err)

	_, err = NewCleanupHandler(NewMemoryStore(), time.Hour, "", nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestCleanupHandlerMetadata(t *testing.T) {
	t.Parallel()

	h, err := NewCleanupHandler(NewMemoryStore(), time.Hour, "", discardLogger())
	require.NoError(t, err)

	assert.Equal(t, TypeCleanup, h.Type())
	assert.True(t, h.IsUnique())
	assert.Equal(t, 1, h.MaxRetries())
	assert.Equal(t, "0 2 * * *", h.Schedule())
}
