// Package api provides the HTTP interface of the task tracker.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/cache"
	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds HTTP server configuration.
type Config struct {
	Port        int
	AppName     string
	Environment string
	Hostname    string
}

// Module provides the HTTP server as a mono module.
type Module struct {
	cfg      Config
	app      *fiber.App
	tasks    *taskmod.Module
	stats    StatsProvider
	feed     ActivityFeed
	handlers *Handlers
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)

// NewModule creates a new API module. The task module must be registered
// before this one so its service exists when Start runs.
func NewModule(cfg Config, tasks *taskmod.Module, caches *cache.Module, feed *activity.Module, logger types.Logger) *Module {
	m := &Module{
		cfg:    cfg,
		tasks:  tasks,
		logger: logger,
	}
	// Typed nils stay out of the interfaces.
	if caches != nil {
		m.stats = caches
	}
	if feed != nil {
		m.feed = feed
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes the Fiber app and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.tasks == nil || m.tasks.Service() == nil {
		return fmt.Errorf("task service not available")
	}

	m.handlers = NewHandlers(m.cfg, m.tasks.Service(), m.stats, m.feed, m.logger)
	m.app = newApp(m.cfg.AppName, m.handlers, m.logger)

	go func() {
		addr := fmt.Sprintf(":%d", m.cfg.Port)
		m.logger.Info("Starting HTTP server", "addr", addr)
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("API module started")
	return nil
}

// Stop stops the HTTP server gracefully.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		m.logger.Info("Shutting down HTTP server...")
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}
	m.logger.Info("API module stopped")
	return nil
}

// App returns the Fiber app (for testing).
func (m *Module) App() *fiber.App {
	return m.app
}

// newApp builds the Fiber app with middleware and routes.
func newApp(appName string, h *Handlers, log types.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	setupRoutes(app, h)
	return app
}

// setupRoutes configures all HTTP routes.
func setupRoutes(app *fiber.App, h *Handlers) {
	// Pages
	app.Get("/", h.Index)
	app.Post("/add", h.AddTask)
	app.Get("/complete/:id", h.CompleteTask)
	app.Get("/delete/:id", h.DeleteTask)

	// Operations
	app.Get("/health", h.Health)
	app.Get("/metrics", h.Metrics)
	app.Get("/cache/stats", h.CacheStats)
	app.Post("/cache/stats/reset", h.ResetCacheStats)
	app.Get("/activity", h.Activity)
}

// errorHandler maps domain errors to HTTP status codes.
func errorHandler(log types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.Is(err, task.ErrValidation):
			code = fiber.StatusBadRequest
			message = err.Error()
		case errors.Is(err, task.ErrStoreUnavailable):
			code = fiber.StatusServiceUnavailable
			message = "Task store unavailable"
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(code).JSON(fiber.Map{
			"error":  message,
			"code":   code,
			"path":   c.Path(),
			"method": c.Method(),
		})
	}
}
