// Package task provides the task entity, its store port and domain errors.
package task

import "time"

// Status represents the state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Task is a single tracked item. The store assigns ID, CreatedAt and UpdatedAt.
type Task struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsCompleted reports whether the task has been completed.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// CreateTaskRequest represents the request to create a task.
type CreateTaskRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description"`
}

// TaskView is the list read result annotated with where it was served from.
type TaskView struct {
	Tasks     []Task `json:"tasks"`
	FromCache bool   `json:"from_cache"`
}

// Metrics holds task counters for reporting.
type Metrics struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	CacheEnabled   bool  `json:"cache_enabled"`
}

// Backend states reported in HealthReport.
const (
	BackendConnected    = "connected"
	BackendDisconnected = "disconnected"
	BackendNotAvailable = "not available"
)

// HealthReport describes backend reachability at the time of the call.
type HealthReport struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Healthy reports whether the service can serve requests. The cache is optional,
// so only the database decides.
func (h HealthReport) Healthy() bool {
	return h.Database == BackendConnected
}
