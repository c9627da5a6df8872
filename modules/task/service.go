// Package task provides the task service with cache-aside list reads.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// DefaultListTTL is the lifetime of a cached task list.
const DefaultListTTL = 60 * time.Second

const listFlightKey = "tasks:list"

// ListCache is the view cache used for the task list.
// Implementations never return errors; failures count as misses.
type ListCache interface {
	GetCachedList(ctx context.Context) ([]task.Task, bool)
	SetCachedList(ctx context.Context, tasks []task.Task, ttl time.Duration)
	InvalidateList(ctx context.Context)
}

// CacheStatus reports whether cache operations should be attempted.
type CacheStatus interface {
	Available() bool
}

// ServiceConfig configures the optional cache side of the service.
// A nil Cache or Status runs the service without caching.
type ServiceConfig struct {
	Cache  ListCache
	Status CacheStatus
	TTL    time.Duration
}

// Service orchestrates task reads and writes across the store and the cache.
type Service struct {
	store    task.Store
	cache    ListCache
	status   CacheStatus
	ttl      time.Duration
	sfGroup   singleflight.Group // Collapses concurrent list misses
	writes    atomic.Uint64
	fillMu    sync.Mutex // Orders list repopulation against write invalidation
	publisher EventPublisher
	logger    types.Logger
}

// NewService creates a new task service.
func NewService(store task.Store, cfg ServiceConfig, logger types.Logger) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	return &Service{
		store:  store,
		cache:  cfg.Cache,
		status: cfg.Status,
		ttl:    ttl,
		logger: logger,
	}
}

// SetEventBus publishes task events on bus. Without one, events are not
// published.
func (s *Service) SetEventBus(bus mono.EventBus) {
	if bus == nil {
		s.publisher = nil
		return
	}
	s.publisher = NewBusPublisher(bus)
}

// CacheAvailable reports whether the cache is currently in use.
func (s *Service) CacheAvailable() bool {
	return s.cache != nil && s.status != nil && s.status.Available()
}

// GetTaskView returns all tasks newest first, from the cache when possible.
func (s *Service) GetTaskView(ctx context.Context) (task.TaskView, error) {
	useCache := s.CacheAvailable()

	if useCache {
		if tasks, hit := s.cache.GetCachedList(ctx); hit {
			s.logger.Debug("Cache HIT for task list", "count", len(tasks))
			return task.TaskView{Tasks: tasks, FromCache: true}, nil
		}
		s.logger.Debug("Cache MISS for task list, querying store")
	}

	val, err, _ := s.sfGroup.Do(listFlightKey, func() (any, error) {
		gen := s.writes.Load()
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return nil, err
		}

		if useCache {
			s.fill(ctx, gen, tasks)
		}
		return tasks, nil
	})
	if err != nil {
		return task.TaskView{}, err
	}

	tasks, _ := val.([]task.Task)
	if tasks == nil {
		tasks = []task.Task{}
	}
	return task.TaskView{Tasks: tasks, FromCache: false}, nil
}

// fill caches a list read that started at write generation gen. A write that
// committed since then has invalidated already, so the list is dropped.
// fillMu makes the check and the set atomic with respect to afterWrite.
func (s *Service) fill(ctx context.Context, gen uint64, tasks []task.Task) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	if s.writes.Load() != gen || !s.CacheAvailable() {
		s.logger.Debug("Skipping cache fill for stale task list")
		return
	}
	s.cache.SetCachedList(ctx, tasks, s.ttl)
}

// CreateTask validates the request and stores a new pending task.
func (s *Service) CreateTask(ctx context.Context, req task.CreateTaskRequest) (*task.Task, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTask(ctx, req.Title, req.Description)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx)

	s.logger.Info("Task created", "id", created.ID)
	if s.publisher != nil {
		event := events.TaskCreatedEvent{
			TaskID:    created.ID,
			Title:     created.Title,
			CreatedAt: created.CreatedAt,
		}
		if err := s.publisher.TaskCreated(event); err != nil {
			s.logger.Warn("Failed to publish TaskCreated event", "id", created.ID, "error", err)
		}
	}
	return created, nil
}

// CompleteTask marks a task completed. Unknown ids are a no-op.
func (s *Service) CompleteTask(ctx context.Context, id int64) error {
	if err := s.store.CompleteTask(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx)

	s.logger.Info("Task completed", "id", id)
	if s.publisher != nil {
		event := events.TaskCompletedEvent{TaskID: id, CompletedAt: time.Now().UTC()}
		if err := s.publisher.TaskCompleted(event); err != nil {
			s.logger.Warn("Failed to publish TaskCompleted event", "id", id, "error", err)
		}
	}
	return nil
}

// DeleteTask removes a task. Unknown ids are a no-op.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx)

	s.logger.Info("Task deleted", "id", id)
	if s.publisher != nil {
		event := events.TaskDeletedEvent{TaskID: id, DeletedAt: time.Now().UTC()}
		if err := s.publisher.TaskDeleted(event); err != nil {
			s.logger.Warn("Failed to publish TaskDeleted event", "id", id, "error", err)
		}
	}
	return nil
}

// afterWrite runs once a store mutation has committed. Reads that start
// from here on get a fresh flight and a cache miss.
func (s *Service) afterWrite(ctx context.Context) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	s.writes.Add(1)
	s.sfGroup.Forget(listFlightKey)

	if s.CacheAvailable() {
		s.cache.InvalidateList(ctx)
	}
}

// GetMetrics returns task counters straight from the store.
func (s *Service) GetMetrics(ctx context.Context) (task.Metrics, error) {
	total, completed, err := s.store.CountTasks(ctx)
	if err != nil {
		return task.Metrics{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	return task.Metrics{
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   total - completed,
		CacheEnabled:   s.CacheAvailable(),
	}, nil
}

// GetHealth pings the store and reports the current cache state.
func (s *Service) GetHealth(ctx context.Context) task.HealthReport {
	report := task.HealthReport{
		Database: task.BackendConnected,
		Redis:    task.BackendNotAvailable,
	}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("Database health check failed", "error", err)
		report.Database = task.BackendDisconnected
	}
	if s.CacheAvailable() {
		report.Redis = task.BackendConnected
	}
	return report
}
