package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spoilsapp/spoils-api/internal/events"
)

// EnqueueEventHandler implements the events.EventHandler interface: it
// turns TaskRequestEvents emitted by the HTTP layer into durable enqueues.
// The event type must match a registered task type; unknown types are
// rejected rather than silently dropped.
type EnqueueEventHandler struct {
	queue    Enqueuer
	registry *Registry
	logger   *slog.Logger
}

// NewEnqueueEventHandler creates an event handler that enqueues tasks
// through the given queue.
func NewEnqueueEventHandler(queue Enqueuer, registry *Registry, logger *slog.Logger) *EnqueueEventHandler {
	return &EnqueueEventHandler{
		queue:    queue,
		registry: registry,
		logger:   logger.With("component", "enqueue_event_handler"),
	}
}

// HandleEvent enqueues a task for the event. Duplicate notices are a
// success outcome here; the caller who cares about the existing task id
// uses the queue directly.
func (h *EnqueueEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if _, ok := h.registry.Get(event.Type); !ok {
		h.logger.Error("event requests unknown task type",
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("%w: %q", ErrUnknownTaskType, event.Type)
	}

	taskID, err := h.queue.Enqueue(ctx, event.Type, json.RawMessage(event.Payload))
	if err != nil {
		if errors.Is(err, ErrDuplicateTask) {
			h.logger.Debug("event matched already pending task",
				"event_id", event.ID,
				"event_type", event.Type,
				"task_id", taskID)
			return nil
		}
		h.logger.Error("failed to enqueue task for event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("failed to enqueue task for event %s: %w", event.ID, err)
	}

	h.logger.Info("task enqueued for event",
		"event_id", event.ID,
		"event_type", event.Type,
		"task_id", taskID)
	return nil
}

// Ensure EnqueueEventHandler implements events.EventHandler
var _ events.EventHandler = (*EnqueueEventHandler)(nil)
