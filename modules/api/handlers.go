package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strconv"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// TaskService is the task service as seen by the HTTP layer.
type TaskService interface {
	GetTaskView(ctx context.Context) (task.TaskView, error)
	CreateTask(ctx context.Context, req task.CreateTaskRequest) (*task.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	GetMetrics(ctx context.Context) (task.Metrics, error)
	GetHealth(ctx context.Context) task.HealthReport
}

// StatsProvider exposes cache statistics.
type StatsProvider interface {
	Stats() cache.StatsSnapshot
	ResetStats()
}

// ActivityFeed exposes recent task activity.
type ActivityFeed interface {
	Recent(limit int) []activity.Entry
}

// Handlers provides HTTP handlers for the API.
type Handlers struct {
	cfg    Config
	tasks  TaskService
	stats  StatsProvider
	feed   ActivityFeed
	logger types.Logger
}

// NewHandlers creates a new handlers instance. stats and feed may be nil.
func NewHandlers(cfg Config, tasks TaskService, stats StatsProvider, feed ActivityFeed, logger types.Logger) *Handlers {
	return &Handlers{
		cfg:    cfg,
		tasks:  tasks,
		stats:  stats,
		feed:   feed,
		logger: logger,
	}
}

type indexPage struct {
	AppName     string
	Environment string
	Pod         string
	Tasks       []task.Task
	FromCache   bool
}

// Index handles GET /.
func (h *Handlers) Index(c *fiber.Ctx) error {
	view, err := h.tasks.GetTaskView(c.UserContext())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexPage{
		AppName:     h.cfg.AppName,
		Environment: h.cfg.Environment,
		Pod:         h.cfg.Hostname,
		Tasks:       view.Tasks,
		FromCache:   view.FromCache,
	}); err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// AddTask handles POST /add.
func (h *Handlers) AddTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form body")
	}

	if _, err := h.tasks.CreateTask(c.UserContext(), req); err != nil {
		return err
	}
	return c.Redirect("/")
}

// CompleteTask handles GET /complete/:id.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.CompleteTask(c.UserContext(), id); err != nil {
		return err
	}
	return c.Redirect("/")
}

// DeleteTask handles GET /delete/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return err
	}
	return c.Redirect("/")
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	report := h.tasks.GetHealth(c.UserContext())

	status, code := "healthy", fiber.StatusOK
	if !report.Healthy() {
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":      status,
		"app":         h.cfg.AppName,
		"environment": h.cfg.Environment,
		"database":    report.Database,
		"redis":       report.Redis,
		"pod":         h.cfg.Hostname,
	})
}

// Metrics handles GET /metrics.
func (h *Handlers) Metrics(c *fiber.Ctx) error {
	metrics, err := h.tasks.GetMetrics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(metrics)
}

// CacheStats handles GET /cache/stats.
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	var stats cache.StatsSnapshot
	if h.stats != nil {
		stats = h.stats.Stats()
	}
	return c.JSON(stats)
}

// ResetCacheStats handles POST /cache/stats/reset.
func (h *Handlers) ResetCacheStats(c *fiber.Ctx) error {
	if h.stats != nil {
		h.stats.ResetStats()
		h.logger.Info("Cache statistics reset")
	}
	return c.JSON(fiber.Map{
		"message": "Cache statistics reset",
	})
}

// Activity handles GET /activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	entries := []activity.Entry{}
	if h.feed != nil {
		entries = h.feed.Recent(limit)
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"count":   len(entries),
	})
}

// parseTaskID reads the :id route parameter. Anything that is not a
// non-negative integer is a 404, as no such route exists.
func parseTaskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, fiber.ErrNotFound
	}
	return id, nil
}
