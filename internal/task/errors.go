package task

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors returned by the task queue.
var (
	// ErrNoTask is returned by ClaimNext when no eligible task exists.
	ErrNoTask = errors.New("no eligible task")

	// ErrDuplicateTask is the defined enqueue outcome for unique variants
	// when an equivalent task is already pending or in progress. It is a
	// notice, not a failure; callers usually unwrap the DuplicateTaskError
	// to report the existing task id.
	ErrDuplicateTask = errors.New("equivalent task already pending")

	// ErrUnknownTaskType is returned when a type tag has no registered handler.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInfrastructure marks store or transport unavailability. The worker
	// loop retries these transparently; they are never charged against a
	// task's retry budget.
	ErrInfrastructure = errors.New("infrastructure error")
)

// DuplicateTaskError reports the task that already covers the requested work.
type DuplicateTaskError struct {
	ExistingID uuid.UUID
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("%v: task %s", ErrDuplicateTask, e.ExistingID)
}

func (e *DuplicateTaskError) Unwrap() error {
	return ErrDuplicateTask
}

// Infra wraps an error as an infrastructure failure.
func Infra(err error) error {
	return fmt.Errorf("%w: %v", ErrInfrastructure, err)
}

// IsInfrastructure reports whether the error is an infrastructure failure
// rather than a task logic failure.
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}
