// Package store provides the durable task store as a mono module.
package store

import (
	"context"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds store configuration.
type Config struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	LogSQL      bool // log every statement on the sqlite driver
}

// Module owns the store connection and exposes task.Store to other modules.
type Module struct {
	cfg       Config
	pool      *pgxpool.Pool
	gormStore *GormStore
	store     task.Store
	logger    types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new store module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// NewModuleWithStore creates a store module around an existing store.
// This constructor enables dependency injection for testing.
func NewModuleWithStore(s task.Store, logger types.Logger) *Module {
	return &Module{
		store:  s,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start opens the database, applies the schema and creates the store.
func (m *Module) Start(ctx context.Context) error {
	if m.store != nil {
		m.logger.Info("Store module started with injected store")
		return nil
	}

	switch m.cfg.Driver {
	case DriverPostgres:
		return m.startPostgres(ctx)
	case DriverSQLite:
		return m.startSQLite()
	default:
		return fmt.Errorf("unsupported store driver %q", m.cfg.Driver)
	}
}

func (m *Module) startPostgres(ctx context.Context) error {
	m.logger.Info("Connecting to PostgreSQL")

	pool, err := pgxpool.New(ctx, m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool, m.logger); err != nil {
		pool.Close()
		return err
	}

	m.pool = pool
	m.store = NewPostgresStore(pool)
	m.logger.Info("Store module started", "driver", DriverPostgres)
	return nil
}

func (m *Module) startSQLite() error {
	logLevel := logger.Warn
	if m.cfg.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.cfg.SQLitePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	gs := NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		_ = gs.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.gormStore = gs
	m.store = gs
	m.logger.Info("Store module started", "driver", DriverSQLite, "path", m.cfg.SQLitePath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.pool != nil {
		m.logger.Info("Closing database connection pool")
		m.pool.Close()
	}
	if m.gormStore != nil {
		if err := m.gormStore.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	m.logger.Info("Store module stopped")
	return nil
}

// Store returns the task store. It is nil until Start succeeds.
func (m *Module) Store() task.Store {
	return m.store
}

// Health performs a health check on the store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Driver,
		},
	}
}
