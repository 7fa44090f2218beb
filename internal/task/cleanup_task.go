package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNilStore is returned when a handler is constructed without a task store.
var ErrNilStore = errors.New("task store cannot be nil")

// DefaultCleanupSchedule runs the prune daily at 02:00.
const DefaultCleanupSchedule = "0 2 * * *"

// CleanupHandler is the recurring maintenance variant: it prunes terminal
// task rows older than the configured retention. Unique, so only one
// instance is ever pending.
type CleanupHandler struct {
	store     Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
}

// NewCleanupHandler creates the cleanup handler with the given retention
// window for finished and failed tasks. An empty schedule falls back to
// DefaultCleanupSchedule.
func NewCleanupHandler(store Store, retention time.Duration, schedule string, logger *slog.Logger) (*CleanupHandler, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if retention <= 0 {
		return nil, fmt.Errorf("cleanup retention must be positive, got %v", retention)
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}

	return &CleanupHandler{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger.With("task_type", TypeCleanup),
	}, nil
}

func (h *CleanupHandler) Type() string                      { return TypeCleanup }
func (h *CleanupHandler) IsUnique() bool                    { return true }
func (h *CleanupHandler) MaxRetries() int                   { return 1 }
func (h *CleanupHandler) Backoff(attempt int) time.Duration { return time.Hour }
func (h *CleanupHandler) Schedule() string                  { return h.schedule }

// Execute deletes terminal task rows past retention.
func (h *CleanupHandler) Execute(ctx context.Context, _ json.RawMessage) error {
	cutoff := time.Now().UTC().Add(-h.retention)

	n, err := h.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return Infra(fmt.Errorf("failed to delete old tasks: %w", err))
	}

	h.logger.Info("cleanup completed", "deleted_tasks", n, "cutoff", cutoff)
	return nil
}
