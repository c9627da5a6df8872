package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// StoreProvider exposes the task store once its module has started.
type StoreProvider interface {
	Store() task.Store
}

// Module wires the task service into the application and exposes it over
// the service container.
type Module struct {
	stores   StoreProvider
	caches   *cache.Module
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
)

// NewModule creates a task module. caches may be nil to run without a cache.
func NewModule(stores StoreProvider, caches *cache.Module, logger types.Logger) *Module {
	return &Module{
		stores: stores,
		caches: caches,
		logger: logger,
	}
}

// NewModuleWithService creates a task module around an existing service.
// This constructor enables dependency injection for testing.
func NewModuleWithService(service *Service, logger types.Logger) *Module {
	return &Module{
		service: service,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetEventBus receives the framework event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	if m.service != nil {
		m.service.SetEventBus(bus)
	}
}

// EmitEvents declares the events published by this module.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes service names with "services.task.".
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete", json.Unmarshal, json.Marshal, m.handleComplete,
	); err != nil {
		return fmt.Errorf("failed to register complete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "metrics", json.Unmarshal, json.Marshal, m.handleMetrics,
	); err != nil {
		return fmt.Errorf("failed to register metrics service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.task.{create,list,complete,delete,metrics}")
	return nil
}

// Start builds the service from the store and cache modules.
// Both must have started already.
func (m *Module) Start(_ context.Context) error {
	if m.service != nil {
		m.logger.Info("Task module started with injected service")
		return nil
	}

	if m.stores == nil || m.stores.Store() == nil {
		return fmt.Errorf("task store not available - ensure the store module starts first")
	}

	var cfg ServiceConfig
	if m.caches != nil {
		if list := m.caches.ListCache(); list != nil {
			cfg.Cache = list
			cfg.Status = m.caches.Availability()
			cfg.TTL = m.caches.TTL()
		}
	}

	m.service = NewService(m.stores.Store(), cfg, m.logger)
	if m.eventBus != nil {
		m.service.SetEventBus(m.eventBus)
	} else {
		m.logger.Warn("Event bus not set, task events will not be published")
	}

	m.logger.Info("Task module started", "cache", cfg.Cache != nil)
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Task module stopped")
	return nil
}

// Service returns the task service. It is nil until Start succeeds.
func (m *Module) Service() *Service {
	return m.service
}

// ============================================================
// Request-reply handlers
// ============================================================

func (m *Module) handleCreate(ctx context.Context, req task.CreateTaskRequest, _ *mono.Msg) (task.Task, error) {
	created, err := m.service.CreateTask(ctx, req)
	if err != nil {
		return task.Task{}, err
	}
	return *created, nil
}

func (m *Module) handleList(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	view, err := m.service.GetTaskView(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{
		Tasks:     view.Tasks,
		Total:     len(view.Tasks),
		FromCache: view.FromCache,
	}, nil
}

func (m *Module) handleComplete(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (WriteResponse, error) {
	if err := m.service.CompleteTask(ctx, req.ID); err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{OK: true}, nil
}

func (m *Module) handleDelete(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (WriteResponse, error) {
	if err := m.service.DeleteTask(ctx, req.ID); err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{OK: true}, nil
}

func (m *Module) handleMetrics(ctx context.Context, _ MetricsRequest, _ *mono.Msg) (task.Metrics, error) {
	return m.service.GetMetrics(ctx)
}
