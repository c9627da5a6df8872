package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, COALESCE(description, ''), status, created_at, updated_at`

// PostgresStore implements task.Store on a pgx connection pool.
// Each statement acquires a pooled connection and releases it before returning.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ task.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateTask inserts a pending task and returns the stored row.
func (s *PostgresStore) CreateTask(ctx context.Context, title, description string) (*task.Task, error) {
	req := task.CreateTaskRequest{Title: title, Description: description}.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, description) VALUES ($1, $2) RETURNING `+taskColumns,
		req.Title, req.Description,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, mapPgError("create task", err)
	}
	return t, nil
}

// ListTasks returns every task ordered by creation time, newest first.
func (s *PostgresStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, mapPgError("list tasks", err)
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapPgError("scan task", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("list tasks", err)
	}
	return tasks, nil
}

// CompleteTask moves a pending task to completed. Unknown or already completed
// ids are left untouched.
func (s *PostgresStore) CompleteTask(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		string(task.StatusCompleted), id, string(task.StatusPending),
	)
	if err != nil {
		return mapPgError("complete task", err)
	}
	return nil
}

// DeleteTask removes a task by id.
func (s *PostgresStore) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return mapPgError("delete task", err)
	}
	return nil
}

// CountTasks returns the total and completed counts in a single round trip.
func (s *PostgresStore) CountTasks(ctx context.Context) (int64, int64, error) {
	var total, completed int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1) FROM tasks`,
		string(task.StatusCompleted),
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, mapPgError("count tasks", err)
	}
	return total, completed, nil
}

// Ping checks that a connection can be acquired and used.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapPgError("ping database", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t      task.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	return &t, nil
}

// mapPgError wraps err with context. Errors reported by the server keep their
// original chain; anything else means the server was not reached and is marked
// as ErrStoreUnavailable.
func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, task.ErrStoreUnavailable, err)
}
