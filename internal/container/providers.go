package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/projector"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/config"
	"github.com/garyjia/expense-approval/internal/infrastructure/auth"
	"github.com/garyjia/expense-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-approval/internal/infrastructure/external/redis"
	"github.com/garyjia/expense-approval/internal/infrastructure/metrics"
	"github.com/garyjia/expense-approval/internal/infrastructure/notify"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-approval/internal/infrastructure/report"
	httpserver "github.com/garyjia/expense-approval/internal/interfaces/http"
	"github.com/garyjia/expense-approval/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Expense      port.ExpenseRepository
	Action       port.ActionRepository
	User         port.UserRepository
	Notification port.NotificationRepository
}

// ProvideDatabase opens the SQLite file, creating its directory, and applies the
// embedded migrations.
func ProvideDatabase(cfg database.Config, logger *zap.Logger) (*DatabaseBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(database.EmbeddedMigrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Expense:      repository.NewExpenseRepository(sqlDB, logger),
		Action:       repository.NewActionRepository(sqlDB, logger),
		User:         repository.NewUserRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

// ProvideRedis connects the event publisher. It returns nil when no URL is configured.
func ProvideRedis(ctx context.Context, cfg redis.Config) (*redis.Client, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// SinkDeps holds dependencies required for building notification sinks.
type SinkDeps struct {
	Config    *config.Config
	Repos     *RepositoryBundle
	Publisher port.EventPublisher
	Logger    *zap.Logger
}

// ProvideSinks builds the sinks enabled by configuration, in delivery order.
func ProvideSinks(deps *SinkDeps) ([]port.NotificationSink, error) {
	if deps == nil || deps.Config == nil {
		return nil, fmt.Errorf("sink dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	cfg := deps.Config
	var sinks []port.NotificationSink

	if cfg.Notification.LogEnabled {
		sinks = append(sinks, notify.NewLogSink(deps.Logger))
	}
	if cfg.Notification.InboxEnabled {
		sinks = append(sinks, notify.NewInboxSink(deps.Repos.User, deps.Repos.Notification))
	}
	if cfg.Lark.Enabled {
		messenger := lark.NewMessenger(lark.NewClient(larkConfig(cfg), deps.Logger), deps.Logger)
		sinks = append(sinks, notify.NewLarkSink(deps.Repos.User, messenger, deps.Logger))
	}
	if deps.Publisher != nil {
		sinks = append(sinks, notify.NewRedisSink(deps.Publisher, cfg.Redis.Channel))
	}

	return sinks, nil
}

// ProvideResolver builds the actor resolver chain. Bearer tokens are always
// honoured when a secret is set; dev headers only in dev mode.
func ProvideResolver(cfg *config.Config, users port.UserRepository) (port.ActorResolver, *auth.TokenService) {
	var (
		chain  auth.ChainResolver
		tokens *auth.TokenService
	)

	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		chain = append(chain, auth.NewJWTResolver(tokens, users))
	}
	if cfg.Auth.DevMode {
		chain = append(chain, auth.NewDevHeaderResolver(users))
	}

	return chain, tokens
}

// WorkflowDeps holds dependencies required for creating the workflow service.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Resolver   port.ActorResolver
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// ProvideWorkflowService creates the engine, projector and service facade.
func ProvideWorkflowService(deps *WorkflowDeps) (*service.WorkflowService, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	engine := workflow.NewEngine(deps.Repos.Expense, deps.Repos.Action, deps.TxManager)

	return service.NewWorkflowService(
		deps.Resolver,
		engine,
		projector.New(deps.Repos.Expense),
		deps.Repos.Notification,
		report.NewExcelWriter(deps.Logger),
		deps.Dispatcher,
		&zapLoggerAdapter{logger: deps.Logger},
		service.WithRecorder(deps.Metrics),
	), nil
}

// ProvideServer creates the HTTP server.
func ProvideServer(cfg *config.Config, svc *service.WorkflowService, gatherer prometheus.Gatherer, logger *zap.Logger) *httpserver.Server {
	return httpserver.NewServer(serverConfig(cfg), svc, gatherer, &zapLoggerAdapter{logger: logger})
}
