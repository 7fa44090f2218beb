package task

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Enqueuer is the write side of the queue, used by the HTTP layer and by
// task handlers that chain follow-up work.
type Enqueuer interface {
	// Enqueue creates a task of the given type. Returns the assigned task
	// id, or the existing task's id together with a DuplicateTaskError when
	// a unique equivalent task is already pending.
	Enqueue(ctx context.Context, typeTag string, payload any) (uuid.UUID, error)
}

// Queue is the durable enqueue surface over the task store. It derives
// uniqueness keys for unique variants and resolves the first run time for
// recurring ones.
type Queue struct {
	store      Store
	registry   *Registry
	cronParser cron.Parser
	logger     *slog.Logger
}

// NewQueue creates a Queue over the given store and handler registry.
func NewQueue(store Store, registry *Registry, logger *slog.Logger) *Queue {
	return &Queue{
		store:    store,
		registry: registry,
		// Standard five-field cron expressions (minute through day-of-week).
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:     logger.With("component", "task_queue"),
	}
}

// Enqueue creates a task of the given type with the given payload,
// scheduled immediately for on-demand variants or at the next cron
// occurrence for recurring ones.
func (q *Queue) Enqueue(ctx context.Context, typeTag string, payload any) (uuid.UUID, error) {
	handler, ok := q.registry.Get(typeTag)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, typeTag)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal payload for %q: %w", typeTag, err)
	}

	now := time.Now().UTC()
	scheduledAt := now
	if expr := handler.Schedule(); expr != "" {
		schedule, err := q.cronParser.Parse(expr)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid cron expression %q for %q: %w", expr, typeTag, err)
		}
		scheduledAt = schedule.Next(now)
	}

	t := &Task{
		ID:          uuid.New(),
		Type:        typeTag,
		Payload:     raw,
		State:       StateNew,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if handler.IsUnique() {
		key := UniquenessKey(typeTag, raw)
		t.UniquenessKey = &key
	}

	if err := q.store.Enqueue(ctx, t); err != nil {
		var dup *DuplicateTaskError
		if errors.As(err, &dup) {
			q.logger.Debug("duplicate task suppressed",
				"task_type", typeTag,
				"existing_task_id", dup.ExistingID)
			return dup.ExistingID, err
		}
		return uuid.Nil, fmt.Errorf("failed to enqueue %q task: %w", typeTag, err)
	}

	q.logger.Debug("task enqueued",
		"task_id", t.ID,
		"task_type", typeTag,
		"scheduled_at", scheduledAt)
	return t.ID, nil
}

// UniquenessKey derives the deduplication fingerprint for a (type, payload)
// pair.
func UniquenessKey(typeTag string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(typeTag))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
