package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of a stored task.
type State string

// Possible task states. Retried is the observable state between a failed
// attempt and the next claim; claim treats it like New.
const (
	StateNew        State = "new"
	StateInProgress State = "in_progress"
	StateRetried    State = "retried"
	StateFailed     State = "failed"
	StateFinished   State = "finished"
)

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateFailed
}

// Task type tags.
const (
	TypeFetchProduct         = "fetch_product"
	TypeAnalyzeIngredients   = "analyze_ingredients"
	TypeResolveSubIngredient = "resolve_sub_ingredient"
	TypeSendNotification     = "send_notification"
	TypeCleanup              = "cleanup"
)

// Task is a stored unit of background work.
type Task struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	State   State           `json:"state"`

	// UniquenessKey is a fingerprint of (type, payload) for variants that
	// opt into deduplication; nil for non-unique variants.
	UniquenessKey *string `json:"uniqueness_key,omitempty"`

	// RetryCount is incremented once per failed attempt, never past the
	// variant's configured maximum.
	RetryCount int `json:"retry_count"`

	// ScheduledAt is the earliest time the task may be claimed.
	ScheduledAt time.Time `json:"scheduled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ErrorMessage holds the last failure detail, empty until an attempt fails.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Handler defines the behavior of one task type variant. Implementations
// are registered in a Registry at startup and dispatched by type tag.
type Handler interface {
	// Type returns the task type tag this handler executes.
	Type() string

	// Execute runs the task logic against the given payload.
	Execute(ctx context.Context, payload json.RawMessage) error

	// IsUnique reports whether at most one equivalent task may be pending
	// or in progress at a time.
	IsUnique() bool

	// MaxRetries is the maximum number of failed attempts before the task
	// transitions to the failed state.
	MaxRetries() int

	// Backoff maps the attempt count to the delay before the retried task
	// becomes eligible again. Pure; the runner applies it.
	Backoff(attempt int) time.Duration

	// Schedule returns a cron expression for recurring variants, or the
	// empty string for on-demand variants.
	Schedule() string
}

// Store defines the persistence contract for the task queue. The store is
// the single synchronization point between workers: claim operations must
// never hand the same task to two concurrent claimants.
//
// Infrastructure failures (store unreachable, I/O errors) are wrapped in
// ErrInfrastructure so the worker loop can retry them transparently without
// charging the task's retry budget.
type Store interface {
	// Enqueue creates the task in state new. If the task carries a
	// uniqueness key and an equivalent task is already pending or in
	// progress, no row is created and a DuplicateTaskError reporting the
	// existing task is returned.
	Enqueue(ctx context.Context, t *Task) error

	// ClaimNext atomically selects one eligible task (state new or retried,
	// scheduled_at <= now, scheduled_at ascending) and transitions it to
	// in_progress. Returns ErrNoTask if no task is eligible.
	ClaimNext(ctx context.Context) (*Task, error)

	// MarkFinished transitions the task to finished.
	MarkFinished(ctx context.Context, id uuid.UUID) error

	// MarkRetry records a failed attempt. If the retry count has reached
	// maxRetries the task transitions to failed; otherwise the count is
	// incremented, the error recorded, and the task rescheduled to
	// now+delay in state retried. Returns the resulting state.
	MarkRetry(ctx context.Context, id uuid.UUID, delay time.Duration, maxRetries int, taskErr string) (State, error)

	// MarkFailed transitions the task to failed with the given error detail.
	MarkFailed(ctx context.Context, id uuid.UUID, taskErr string) error

	// Release returns an in-progress task to new without touching its retry
	// count. Used when the attempt failed for infrastructure reasons that
	// say nothing about the task itself.
	Release(ctx context.Context, id uuid.UUID, reason string) error

	// ReclaimStale returns in_progress tasks untouched for longer than
	// olderThan to state new, so work stranded by a crashed worker becomes
	// claimable again. Returns the number of reclaimed tasks.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)

	// GetByID retrieves a task by id. Returns store.ErrTaskNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)

	// FindByCorrelation returns tasks whose payload contains the given
	// key/value pair (e.g. barcode=...), newest first.
	FindByCorrelation(ctx context.Context, key, value string) ([]*Task, error)

	// CountByState returns aggregate task counts keyed by state.
	CountByState(ctx context.Context) (map[State]int, error)

	// DeleteTerminalBefore removes finished and failed tasks last updated
	// before the cutoff. Returns the number of deleted rows.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
