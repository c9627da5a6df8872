// Package activity records recent task events for the activity feed.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept in the feed.
const DefaultCapacity = 100

// Entry types.
const (
	TypeTaskCreated   = "task_created"
	TypeTaskCompleted = "task_completed"
	TypeTaskDeleted   = "task_deleted"
)

// Entry is a single activity feed record.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    int64     `json:"task_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Module consumes task events and keeps the most recent entries in memory.
type Module struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.EventConsumerModule = (*Module)(nil)
)

// NewModule creates an activity module keeping DefaultCapacity entries.
func NewModule(logger types.Logger) *Module {
	return NewModuleWithCapacity(DefaultCapacity, logger)
}

// NewModuleWithCapacity creates an activity module with a custom capacity.
func NewModuleWithCapacity(capacity int, logger types.Logger) *Module {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Module{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// RegisterEventConsumers subscribes to task events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TaskCreated.v1", "TaskCompleted.v1", "TaskDeleted.v1"})
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(TypeTaskCreated, event.TaskID, fmt.Sprintf("Task %d created: %s", event.TaskID, event.Title), event.CreatedAt)
	return nil
}

func (m *Module) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.record(TypeTaskCompleted, event.TaskID, fmt.Sprintf("Task %d completed", event.TaskID), event.CompletedAt)
	return nil
}

func (m *Module) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(TypeTaskDeleted, event.TaskID, fmt.Sprintf("Task %d deleted", event.TaskID), event.DeletedAt)
	return nil
}

func (m *Module) record(entryType string, taskID int64, message string, at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Entry{
		ID:        uuid.New().String(),
		Type:      entryType,
		TaskID:    taskID,
		Message:   message,
		Timestamp: at,
	})
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}

	m.logger.Debug("Recorded activity", "type", entryType, "task_id", taskID)
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (m *Module) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started - listening for task events")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}
