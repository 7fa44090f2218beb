package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers poll for tasks.
	WorkerCount int

	// PollInterval is how long an idle worker pauses before the next claim
	// attempt. Also used as the retry pause after infrastructure errors.
	PollInterval time.Duration

	// ReclaimAge defines how long a task can sit in_progress before the
	// reclaim sweep considers its worker dead and returns it to new.
	ReclaimAge time.Duration

	// ReclaimInterval defines how often the reclaim sweep runs.
	// If zero, defaults to 5 minutes.
	ReclaimInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:     5,
		PollInterval:    time.Second,
		ReclaimAge:      30 * time.Minute,
		ReclaimInterval: 5 * time.Minute,
	}
}

// Runner manages background task processing: a fixed pool of workers, each
// looping claim -> dispatch -> mark against the store. There is no shared
// in-memory queue; the store is the single source of truth, so runners in
// separate processes cooperate safely.
type Runner struct {
	store      Store
	registry   *Registry
	queue      *Queue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner creates a new Runner.
func NewRunner(store Store, registry *Registry, queue *Queue, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.ReclaimInterval == 0 {
		config.ReclaimInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		registry:   registry,
		queue:      queue,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "task_runner"),
	}
}

// Start seeds recurring tasks and launches the worker pool and the reclaim
// sweep.
func (r *Runner) Start() error {
	if err := r.seedRecurring(); err != nil {
		return fmt.Errorf("failed to seed recurring tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.reclaimMonitor()

	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)
	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight tasks.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// seedRecurring ensures each recurring variant has an instance pending at
// its next cron occurrence. Duplicate notices are the expected outcome when
// an instance already waits.
func (r *Runner) seedRecurring() error {
	for _, handler := range r.registry.Recurring() {
		_, err := r.queue.Enqueue(r.ctx, handler.Type(), struct{}{})
		if err != nil && !errors.Is(err, ErrDuplicateTask) {
			return err
		}
	}
	return nil
}

// worker claims and processes tasks until the runner is stopped.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		default:
		}

		claimed, err := r.store.ClaimNext(r.ctx)
		if err != nil {
			if errors.Is(err, ErrNoTask) {
				r.pause()
				continue
			}
			// Store unreachable: retried transparently, no task state touched.
			r.logger.Error("failed to claim task", "worker_id", id, "error", err)
			r.pause()
			continue
		}

		r.processTask(claimed, id)
	}
}

// pause sleeps for the poll interval or until shutdown.
func (r *Runner) pause() {
	select {
	case <-r.ctx.Done():
	case <-time.After(r.config.PollInterval):
	}
}

// processTask dispatches a claimed task to its handler and records the
// outcome. Execution itself runs under a background context: a claimed task
// is never cancelled mid-flight, only reclaimed later if the process dies.
func (r *Runner) processTask(t *Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", t.ID,
		"task_type", t.Type,
		"worker_id", workerID,
	)

	handler, ok := r.registry.Get(t.Type)
	if !ok {
		logger.Error("no handler registered for claimed task")
		if err := r.store.MarkFailed(ctx, t.ID, fmt.Sprintf("no handler registered for type %q", t.Type)); err != nil {
			logger.Error("failed to mark unhandled task failed", "error", err)
		}
		return
	}

	logger.Info("processing task", "retry_count", t.RetryCount)

	err := handler.Execute(ctx, t.Payload)
	if err == nil {
		if markErr := r.store.MarkFinished(ctx, t.ID); markErr != nil {
			logger.Error("failed to mark task finished", "error", markErr)
			return
		}
		logger.Info("task completed successfully")
		r.scheduleNextRun(ctx, t, handler, logger)
		return
	}

	if IsInfrastructure(err) {
		// Not the task's fault: release without charging the retry budget.
		logger.Warn("infrastructure error during task execution, releasing task", "error", err)
		if relErr := r.store.Release(ctx, t.ID, err.Error()); relErr != nil {
			logger.Error("failed to release task", "error", relErr)
		}
		return
	}

	attempt := t.RetryCount + 1
	delay := handler.Backoff(attempt)

	newState, markErr := r.store.MarkRetry(ctx, t.ID, delay, handler.MaxRetries(), err.Error())
	if markErr != nil {
		logger.Error("failed to record task failure", "error", markErr, "task_error", err)
		return
	}

	switch newState {
	case StateFailed:
		logger.Error("task failed permanently", "error", err, "attempts", t.RetryCount)
		r.scheduleNextRun(ctx, t, handler, logger)
	default:
		logger.Warn("task attempt failed, retry scheduled",
			"error", err,
			"attempt", attempt,
			"retry_delay", delay)
	}
}

// scheduleNextRun re-enqueues recurring variants at their next cron
// occurrence once the current instance reaches a terminal state.
func (r *Runner) scheduleNextRun(ctx context.Context, t *Task, handler Handler, logger *slog.Logger) {
	if handler.Schedule() == "" {
		return
	}

	_, err := r.queue.Enqueue(ctx, t.Type, json.RawMessage(t.Payload))
	if err != nil && !errors.Is(err, ErrDuplicateTask) {
		logger.Error("failed to schedule next recurring run", "error", err)
		return
	}
	logger.Debug("next recurring run scheduled")
}

// reclaimMonitor periodically returns stale in_progress tasks to new so a
// crash mid-execution never strands a task permanently.
func (r *Runner) reclaimMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			n, err := r.store.ReclaimStale(context.Background(), r.config.ReclaimAge)
			if err != nil {
				r.logger.Error("failed to reclaim stale tasks", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("reclaimed stale tasks", "count", n)
			}
		}
	}
}
