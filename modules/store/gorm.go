package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// GormStore implements task.Store with GORM. It backs the sqlite driver used for
// local development and tests.
type GormStore struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ task.Store = (*GormStore)(nil)

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tasks table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&task.Task{})
}

// CreateTask inserts a pending task.
func (s *GormStore) CreateTask(ctx context.Context, title, description string) (*task.Task, error) {
	req := task.CreateTaskRequest{Title: title, Description: description}.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      task.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, mapGormError("create task", err)
	}
	return t, nil
}

// ListTasks returns every task, newest first.
func (s *GormStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, mapGormError("list tasks", err)
	}
	return tasks, nil
}

// CompleteTask moves a pending task to completed.
func (s *GormStore) CompleteTask(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("id = ? AND status = ?", id, task.StatusPending).
		Updates(map[string]any{
			"status":     task.StatusCompleted,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return mapGormError("complete task", result.Error)
	}
	return nil
}

// DeleteTask hard-deletes a task by id.
func (s *GormStore) DeleteTask(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&task.Task{}, id).Error; err != nil {
		return mapGormError("delete task", err)
	}
	return nil
}

// CountTasks returns the total and completed counts.
func (s *GormStore) CountTasks(ctx context.Context) (int64, int64, error) {
	var total, completed int64
	if err := s.db.WithContext(ctx).Model(&task.Task{}).Count(&total).Error; err != nil {
		return 0, 0, mapGormError("count tasks", err)
	}
	if err := s.db.WithContext(ctx).Model(&task.Task{}).Where("status = ?", task.StatusCompleted).Count(&completed).Error; err != nil {
		return 0, 0, mapGormError("count completed tasks", err)
	}
	return total, completed, nil
}

// Ping checks the underlying database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w: %w", task.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w: %w", task.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteUnavailable lists the sqlite result codes that mean the database file
// cannot be used at all, as opposed to a rejected statement.
var sqliteUnavailable = []sqlite3.ErrNo{
	sqlite3.ErrBusy,
	sqlite3.ErrLocked,
	sqlite3.ErrIoErr,
	sqlite3.ErrCorrupt,
	sqlite3.ErrFull,
	sqlite3.ErrCantOpen,
	sqlite3.ErrNotADB,
}

// mapGormError wraps err with context. Statement and constraint errors keep
// their chain; everything else, including a closed database, is marked as
// ErrStoreUnavailable.
func mapGormError(op string, err error) error {
	var sqliteErr sqlite3.Error
	switch {
	case errors.As(err, &sqliteErr):
		for _, code := range sqliteUnavailable {
			if sqliteErr.Code == code {
				return fmt.Errorf("failed to %s: %w: %w", op, task.ErrStoreUnavailable, err)
			}
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrInvalidField):
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, task.ErrStoreUnavailable, err)
}
