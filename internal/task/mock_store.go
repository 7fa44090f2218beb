package task

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spoilsapp/spoils-api/internal/store"
)

// MemoryStore is an in-memory Store implementation for tests. It mirrors
// the Postgres store's semantics: atomic claims, uniqueness over pending
// tasks, and the max-retry guard inside MarkRetry.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task

	// FailWith, when set, makes every operation return the given error.
	// Used to exercise infrastructure failure paths.
	FailWith error
}

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[uuid.UUID]*Task),
	}
}

var _ Store = (*MemoryStore)(nil)

// Snapshot returns a copy of the stored task with the given id, or nil.
func (s *MemoryStore) Snapshot(id uuid.UUID) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// Backdate rewrites a task's UpdatedAt, letting tests age an in-progress
// claim past the reclaim threshold.
func (s *MemoryStore) Backdate(id uuid.UUID, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.UpdatedAt = updatedAt
	}
}

// Len returns the number of stored tasks.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *MemoryStore) Enqueue(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	if t.UniquenessKey != nil {
		for _, existing := range s.tasks {
			if existing.UniquenessKey == nil || existing.State.IsTerminal() {
				continue
			}
			if *existing.UniquenessKey == *t.UniquenessKey {
				return &DuplicateTaskError{ExistingID: existing.ID}
			}
		}
	}

	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *MemoryStore) ClaimNext(_ context.Context) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	now := time.Now().UTC()

	var eligible []*Task
	for _, t := range s.tasks {
		if (t.State == StateNew || t.State == StateRetried) && !t.ScheduledAt.After(now) {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoTask
	}

	sort.Slice(eligible, func(i, j int) bool {
		if !eligible[i].ScheduledAt.Equal(eligible[j].ScheduledAt) {
			return eligible[i].ScheduledAt.Before(eligible[j].ScheduledAt)
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	claimed := eligible[0]
	claimed.State = StateInProgress
	claimed.UpdatedAt = now

	cp := *claimed
	return &cp, nil
}

func (s *MemoryStore) MarkFinished(_ context.Context, id uuid.UUID) error {
	return s.transition(id, func(t *Task) {
		t.State = StateFinished
		t.ErrorMessage = ""
	})
}

func (s *MemoryStore) MarkRetry(_ context.Context, id uuid.UUID, delay time.Duration, maxRetries int, taskErr string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return "", s.FailWith
	}

	t, ok := s.tasks[id]
	if !ok {
		return "", store.ErrTaskNotFound
	}

	now := time.Now().UTC()
	t.ErrorMessage = taskErr
	t.UpdatedAt = now

	if t.RetryCount >= maxRetries {
		t.State = StateFailed
		return StateFailed, nil
	}

	t.RetryCount++
	t.State = StateRetried
	t.ScheduledAt = now.Add(delay)
	return StateRetried, nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id uuid.UUID, taskErr string) error {
	return s.transition(id, func(t *Task) {
		t.State = StateFailed
		t.ErrorMessage = taskErr
	})
}

func (s *MemoryStore) Release(_ context.Context, id uuid.UUID, _ string) error {
	return s.transition(id, func(t *Task) {
		t.State = StateNew
	})
}

func (s *MemoryStore) ReclaimStale(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return 0, s.FailWith
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	n := 0
	for _, t := range s.tasks {
		if t.State == StateInProgress && t.UpdatedAt.Before(cutoff) {
			t.State = StateNew
			t.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) FindByCorrelation(_ context.Context, key, value string) ([]*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	needle := `"` + key + `":` + strconv.Quote(value)
	var out []*Task
	for _, t := range s.tasks {
		if containsJSONPair(t.Payload, needle) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountByState(_ context.Context) (map[State]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	counts := make(map[State]int)
	for _, t := range s.tasks {
		counts[t.State]++
	}
	return counts, nil
}

func (s *MemoryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return 0, s.FailWith
	}

	var n int64
	for id, t := range s.tasks {
		if t.State.IsTerminal() && t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) transition(id uuid.UUID, apply func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	apply(t)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func containsJSONPair(payload []byte, needle string) bool {
	// Good enough for flat test payloads; the real store uses JSONB
	// containment.
	return strings.Contains(string(payload), needle)
}
