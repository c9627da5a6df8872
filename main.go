package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/store"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Tracker ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	storeModule := store.NewModule(store.Config{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL(),
		SQLitePath:  cfg.SQLitePath,
		LogSQL:      cfg.IsDevelopment(),
	}, logger.WithModule("store"))

	cacheModule := cache.NewModule(cache.Config{
		Enabled:       cfg.CacheEnabled,
		Addr:          cfg.RedisAddr(),
		Password:      cfg.RedisPassword,
		DB:            cfg.RedisDB,
		Key:           cfg.CacheKey,
		TTL:           cfg.CacheTTL,
		ProbeInterval: cfg.CacheProbeInterval,
	}, logger.WithModule("cache"))

	activityModule := activity.NewModule(logger.WithModule("activity"))
	taskModule := task.NewModule(storeModule, cacheModule, logger.WithModule("task"))
	apiModule := api.NewModule(api.Config{
		Port:        cfg.Port,
		AppName:     cfg.AppName,
		Environment: cfg.AppEnv,
		Hostname:    cfg.Pod,
	}, taskModule, cacheModule, activityModule, logger.WithModule("api"))

	// Modules start in registration order: backends first, then the
	// service that needs them, then the HTTP server.
	app.Register(storeModule)
	app.Register(cacheModule)
	app.Register(activityModule)
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	cacheState := "disabled"
	if cfg.CacheEnabled {
		cacheState = fmt.Sprintf("redis %s (key %q, ttl %s)", cfg.RedisAddr(), cfg.CacheKey, cfg.CacheTTL)
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("  App:         %s (%s)", cfg.AppName, cfg.AppEnv)
	log.Printf("  Store:       %s", cfg.StoreDriver)
	log.Printf("  Cache:       %s", cacheState)
	log.Println("")
	log.Printf("HTTP endpoints (http://localhost:%d):", cfg.Port)
	log.Println("  GET    /                 - Task list")
	log.Println("  POST   /add              - Create a task (form: title, description)")
	log.Println("  GET    /complete/:id     - Complete a task")
	log.Println("  GET    /delete/:id       - Delete a task")
	log.Println("  GET    /health           - Health check")
	log.Println("  GET    /metrics          - Task counters")
	log.Println("  GET    /cache/stats      - Cache statistics")
	log.Println("  POST   /cache/stats/reset - Reset cache statistics")
	log.Println("  GET    /activity         - Recent task activity")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
