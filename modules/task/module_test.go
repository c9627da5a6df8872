package task

import (
	"context"
	"errors"
	"testing"

	"github.com/example/task-tracker/domain/task"
)

type fakeStoreProvider struct {
	store task.Store
}

func (p fakeStoreProvider) Store() task.Store {
	return p.store
}

func setupModule(t *testing.T) (*Module, *testEnv) {
	t.Helper()

	env := setupService(t, true)
	m := NewModuleWithService(env.service, &mockLogger{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return m, env
}

func TestModule_Name(t *testing.T) {
	m := NewModuleWithService(nil, &mockLogger{})
	if m.Name() != "task" {
		t.Errorf("Name() = %q, want %q", m.Name(), "task")
	}
}

func TestModule_EmitEvents(t *testing.T) {
	m := NewModuleWithService(nil, &mockLogger{})
	if n := len(m.EmitEvents()); n != 3 {
		t.Errorf("EmitEvents() returned %d definitions, want 3", n)
	}
}

func TestModule_StartWithoutStore(t *testing.T) {
	m := NewModule(fakeStoreProvider{}, nil, &mockLogger{})
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil without a store")
	}
	if m.Service() != nil {
		t.Error("Service() should be nil after a failed start")
	}
}

func TestModule_StartWithoutCache(t *testing.T) {
	m := NewModule(fakeStoreProvider{store: newFakeStore()}, nil, &mockLogger{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.Service() == nil {
		t.Fatal("Service() = nil after Start()")
	}
	if m.Service().CacheAvailable() {
		t.Error("CacheAvailable() = true without a cache module")
	}
}

func TestModule_HandleCreate(t *testing.T) {
	m, _ := setupModule(t)
	ctx := context.Background()

	created, err := m.handleCreate(ctx, task.CreateTaskRequest{Title: " Deploy v2 ", Description: "prod"}, nil)
	if err != nil {
		t.Fatalf("handleCreate() error = %v", err)
	}
	if created.ID == 0 || created.Title != "Deploy v2" || created.Status != task.StatusPending {
		t.Errorf("unexpected task: %+v", created)
	}

	if _, err := m.handleCreate(ctx, task.CreateTaskRequest{}, nil); !errors.Is(err, task.ErrValidation) {
		t.Errorf("handleCreate() error = %v, want ErrValidation", err)
	}
}

func TestModule_HandleList(t *testing.T) {
	m, env := setupModule(t)
	ctx := context.Background()
	mustCreate(t, env.service, "a")
	mustCreate(t, env.service, "b")

	resp, err := m.handleList(ctx, ListTasksRequest{}, nil)
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if resp.Total != 2 || len(resp.Tasks) != 2 || resp.FromCache {
		t.Errorf("first list = %+v, want 2 tasks from the store", resp)
	}

	resp, err = m.handleList(ctx, ListTasksRequest{}, nil)
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if !resp.FromCache {
		t.Error("second list should be served from cache")
	}
}

func TestModule_HandleCompleteAndDelete(t *testing.T) {
	m, env := setupModule(t)
	ctx := context.Background()
	created := mustCreate(t, env.service, "a")

	resp, err := m.handleComplete(ctx, TaskIDRequest{ID: created.ID}, nil)
	if err != nil || !resp.OK {
		t.Fatalf("handleComplete() = %+v, %v", resp, err)
	}
	if got := env.store.tasks[created.ID]; got.Status != task.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, task.StatusCompleted)
	}

	resp, err = m.handleDelete(ctx, TaskIDRequest{ID: created.ID}, nil)
	if err != nil || !resp.OK {
		t.Fatalf("handleDelete() = %+v, %v", resp, err)
	}
	if n := env.store.taskCount(); n != 0 {
		t.Errorf("taskCount() = %d after delete, want 0", n)
	}
}

func TestModule_HandleWritesStoreDown(t *testing.T) {
	m, env := setupModule(t)
	env.store.setDown(true)
	ctx := context.Background()

	if _, err := m.handleComplete(ctx, TaskIDRequest{ID: 1}, nil); !errors.Is(err, task.ErrStoreUnavailable) {
		t.Errorf("handleComplete() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := m.handleDelete(ctx, TaskIDRequest{ID: 1}, nil); !errors.Is(err, task.ErrStoreUnavailable) {
		t.Errorf("handleDelete() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestModule_HandleMetrics(t *testing.T) {
	m, env := setupModule(t)
	ctx := context.Background()
	first := mustCreate(t, env.service, "a")
	mustCreate(t, env.service, "b")
	if err := env.service.CompleteTask(ctx, first.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}

	metrics, err := m.handleMetrics(ctx, MetricsRequest{}, nil)
	if err != nil {
		t.Fatalf("handleMetrics() error = %v", err)
	}
	want := task.Metrics{TotalTasks: 2, CompletedTasks: 1, PendingTasks: 1, CacheEnabled: true}
	if metrics != want {
		t.Errorf("handleMetrics() = %+v, want %+v", metrics, want)
	}
}
