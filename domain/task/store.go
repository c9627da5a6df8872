package task

import "context"

// Store is the durable source of truth for tasks.
//
// Implementations wrap connectivity failures with ErrStoreUnavailable.
// CompleteTask and DeleteTask are silent no-ops for unknown ids.
type Store interface {
	// CreateTask persists a new pending task and returns the stored record.
	CreateTask(ctx context.Context, title, description string) (*Task, error)

	// ListTasks returns all tasks, newest first.
	ListTasks(ctx context.Context) ([]Task, error)

	// CompleteTask marks a pending task completed and refreshes UpdatedAt.
	CompleteTask(ctx context.Context, id int64) error

	// DeleteTask removes a task permanently.
	DeleteTask(ctx context.Context, id int64) error

	// CountTasks returns the total and completed task counts.
	CountTasks(ctx context.Context) (total, completed int64, err error)

	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}
