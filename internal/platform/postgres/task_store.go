package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
	"github.com/spoilsapp/spoils-api/internal/store"
	"github.com/spoilsapp/spoils-api/internal/task"
)

// PostgresTaskStore implements the task.Store interface using a PostgreSQL
// database as the queue backend. Claims rely on FOR UPDATE SKIP LOCKED so
// concurrent workers never receive the same row; uniqueness relies on a
// partial unique index over pending states.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the task
// queue store. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.Store interface
var _ task.Store = (*PostgresTaskStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

const taskColumns = `id, type, payload, state, uniqueness_key, retry_count,
	scheduled_at, created_at, updated_at, error_message`

// Enqueue implements task.Store.Enqueue. For unique tasks the insert
// targets the partial unique index over pending states; a conflict yields a
// DuplicateTaskError naming the already pending task.
func (s *PostgresTaskStore) Enqueue(ctx context.Context, t *task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, state, uniqueness_key, retry_count,
			scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.Type,
		[]byte(t.Payload),
		t.State,
		t.UniquenessKey,
		t.RetryCount,
		t.ScheduledAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && t.UniquenessKey != nil {
			existingID, lookupErr := s.pendingTaskID(ctx, *t.UniquenessKey)
			if lookupErr != nil {
				// The pending duplicate finished between insert and lookup;
				// report the duplicate without the id.
				log.Debug("duplicate task vanished before lookup",
					slog.String("task_type", t.Type))
				return &task.DuplicateTaskError{}
			}
			log.Debug("duplicate task rejected",
				slog.String("task_type", t.Type),
				slog.String("existing_task_id", existingID.String()))
			return &task.DuplicateTaskError{ExistingID: existingID}
		}
		log.Error("failed to enqueue task",
			slog.String("task_id", t.ID.String()),
			slog.String("task_type", t.Type),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to enqueue task: %w", MapError(err))
	}

	return nil
}

// pendingTaskID looks up the pending task holding the given uniqueness key.
func (s *PostgresTaskStore) pendingTaskID(ctx context.Context, key string) (uuid.UUID, error) {
	query := `
		SELECT id FROM tasks
		WHERE uniqueness_key = $1 AND state IN ('new', 'in_progress', 'retried')
		LIMIT 1
	`
	var id uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return uuid.Nil, MapError(err)
	}
	return id, nil
}

// ClaimNext implements task.Store.ClaimNext. The CTE locks a single
// eligible row with SKIP LOCKED before transitioning it, so two workers
// calling concurrently claim distinct tasks or none.
func (s *PostgresTaskStore) ClaimNext(ctx context.Context) (*task.Task, error) {
	query := `
		WITH next_task AS (
			SELECT id FROM tasks
			WHERE state IN ('new', 'retried') AND scheduled_at <= now()
			ORDER BY scheduled_at ASC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE tasks
		SET state = 'in_progress', updated_at = now()
		FROM next_task
		WHERE tasks.id = next_task.id
		RETURNING tasks.id, tasks.type, tasks.payload, tasks.state,
			tasks.uniqueness_key, tasks.retry_count, tasks.scheduled_at,
			tasks.created_at, tasks.updated_at, tasks.error_message
	`

	t, err := scanTask(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, task.ErrNoTask
		}
		return nil, task.Infra(fmt.Errorf("failed to claim task: %w", err))
	}
	return t, nil
}

// MarkFinished implements task.Store.MarkFinished.
func (s *PostgresTaskStore) MarkFinished(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET state = 'finished', error_message = '', updated_at = now()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return task.Infra(fmt.Errorf("failed to mark task finished: %w", MapError(err)))
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// MarkRetry implements task.Store.MarkRetry. The max-retry guard runs
// inside the statement so a task can never exceed its retry budget even
// under concurrent calls.
func (s *PostgresTaskStore) MarkRetry(
	ctx context.Context,
	id uuid.UUID,
	delay time.Duration,
	maxRetries int,
	taskErr string,
) (task.State, error) {
	query := `
		UPDATE tasks
		SET state = CASE WHEN retry_count >= $2 THEN 'failed' ELSE 'retried' END,
			retry_count = CASE WHEN retry_count >= $2 THEN retry_count ELSE retry_count + 1 END,
			scheduled_at = CASE WHEN retry_count >= $2 THEN scheduled_at ELSE now() + $3 * interval '1 second' END,
			error_message = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING state
	`

	var state task.State
	err := s.db.QueryRowContext(ctx, query,
		id,
		maxRetries,
		delay.Seconds(),
		taskErr,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrTaskNotFound
		}
		return "", task.Infra(fmt.Errorf("failed to mark task for retry: %w", MapError(err)))
	}
	return state, nil
}

// MarkFailed implements task.Store.MarkFailed.
func (s *PostgresTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, taskErr string) error {
	query := `
		UPDATE tasks
		SET state = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, taskErr)
	if err != nil {
		return task.Infra(fmt.Errorf("failed to mark task failed: %w", MapError(err)))
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// Release implements task.Store.Release. The retry count is left untouched;
// the attempt is not charged against the task.
func (s *PostgresTaskStore) Release(ctx context.Context, id uuid.UUID, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET state = 'new', updated_at = now()
		WHERE id = $1 AND state = 'in_progress'
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return task.Infra(fmt.Errorf("failed to release task: %w", MapError(err)))
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	log.Info("task released without charging retry budget",
		slog.String("task_id", id.String()),
		slog.String("reason", reason))
	return nil
}

// ReclaimStale implements task.Store.ReclaimStale.
func (s *PostgresTaskStore) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	query := `
		UPDATE tasks
		SET state = 'new', updated_at = now()
		WHERE state = 'in_progress' AND updated_at < now() - $1 * interval '1 second'
	`
	result, err := s.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, task.Infra(fmt.Errorf("failed to reclaim stale tasks: %w", MapError(err)))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, task.Infra(fmt.Errorf("failed to count reclaimed tasks: %w", err))
	}
	return int(n), nil
}

// GetByID implements task.Store.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return t, nil
}

// FindByCorrelation implements task.Store.FindByCorrelation using a JSONB
// containment match on the payload.
func (s *PostgresTaskStore) FindByCorrelation(ctx context.Context, key, value string) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE payload @> jsonb_build_object($1::text, $2::text)
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, key, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by correlation: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// CountByState implements task.Store.CountByState.
func (s *PostgresTaskStore) CountByState(ctx context.Context) (map[task.State]int, error) {
	query := `SELECT state, count(*) FROM tasks GROUP BY state`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by state: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[task.State]int)
	for rows.Next() {
		var state task.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating state counts: %w", err)
	}
	return counts, nil
}

// DeleteTerminalBefore implements task.Store.DeleteTerminalBefore.
func (s *PostgresTaskStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM tasks
		WHERE state IN ('finished', 'failed') AND updated_at < $1
	`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal tasks: %w", MapError(err))
	}
	return result.RowsAffected()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var payload []byte
	var uniquenessKey sql.NullString
	var errorMessage sql.NullString

	err := row.Scan(
		&t.ID,
		&t.Type,
		&payload,
		&t.State,
		&uniquenessKey,
		&t.RetryCount,
		&t.ScheduledAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	t.Payload = payload
	if uniquenessKey.Valid {
		t.UniquenessKey = &uniquenessKey.String
	}
	t.ErrorMessage = errorMessage.String
	return &t, nil
}
