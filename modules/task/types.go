package task

import "github.com/example/task-tracker/domain/task"

// ListTasksRequest represents a request to list all tasks.
type ListTasksRequest struct{}

// ListTasksResponse represents the list-tasks response.
type ListTasksResponse struct {
	Tasks     []task.Task `json:"tasks"`
	Total     int         `json:"total"`
	FromCache bool        `json:"from_cache"`
}

// TaskIDRequest identifies a single task.
type TaskIDRequest struct {
	ID int64 `json:"id"`
}

// WriteResponse acknowledges a complete or delete request.
type WriteResponse struct {
	OK bool `json:"ok"`
}

// MetricsRequest represents a request for task counters.
type MetricsRequest struct{}
