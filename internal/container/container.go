package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/config"
	"github.com/garyjia/expense-approval/internal/infrastructure/auth"
	"github.com/garyjia/expense-approval/internal/infrastructure/external/redis"
	"github.com/garyjia/expense-approval/internal/infrastructure/metrics"
	"github.com/garyjia/expense-approval/internal/infrastructure/notify"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/garyjia/expense-approval/internal/interfaces/http"
	"github.com/garyjia/expense-approval/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	opts   options
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	redis *redis.Client

	// Application
	metrics    *metrics.Metrics
	dispatcher dispatcher.Dispatcher
	resolver   port.ActorResolver
	tokens     *auth.TokenService
	workflow   *service.WorkflowService

	// Interfaces
	server *httpserver.Server

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Container{
		config: cfg,
		opts:   o,
		logger: logger,
	}, nil
}

// Start initializes all components. It does not start serving HTTP; run
// Server().Start for that.
//  1. Database and repositories
//  2. External clients (Redis)
//  3. Metrics, dispatcher and notification sinks
//  4. Auth and the workflow service
//  5. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initExternalClients(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	if err := c.initDispatcher(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	if err := c.initWorkflow(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize workflow service: %w", err)
	}
	c.logger.Info("Workflow service initialized")

	c.server = ProvideServer(c.config, c.workflow, c.opts.gatherer, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close shuts down all components in reverse order. In-flight notifications
// are drained before the database closes.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	err := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) teardown() error {
	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
		c.dispatcher = nil
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Error("Failed to close redis", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Redis closed")
		}
		c.redis = nil
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.db = nil
	}

	return errors.Join(errs...)
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, err error) {
		if err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	if c.db != nil {
		set("database", c.db.PingContext(ctx))
	} else {
		set("database", errors.New("not initialized"))
	}

	if c.dispatcher != nil {
		set("dispatcher", nil)
	} else {
		set("dispatcher", errors.New("not initialized"))
	}

	// redis is optional; only report it when configured
	if c.redis != nil {
		set("redis", c.redis.Health(ctx))
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(databaseConfig(c.config), c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db.DB, c.logger)
	if err != nil {
		_ = c.db.Close()
		c.db = nil
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initExternalClients(ctx context.Context) error {
	client, err := ProvideRedis(ctx, redisConfig(c.config))
	if err != nil {
		return err
	}
	c.redis = client
	return nil
}

func (c *Container) initDispatcher() error {
	c.metrics = metrics.New(c.opts.registerer)

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	deps := &SinkDeps{
		Config: c.config,
		Repos:  c.repositories,
		Logger: c.logger,
	}
	// a nil *redis.Client must not become a non-nil interface
	if c.redis != nil {
		deps.Publisher = c.redis
	}

	sinks, err := ProvideSinks(deps)
	if err != nil {
		return err
	}
	notify.Register(c.dispatcher, c.metrics, sinks...)

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	c.logger.Info("Notification sinks registered", zap.Strings("sinks", names))
	return nil
}

func (c *Container) initWorkflow() error {
	c.resolver, c.tokens = ProvideResolver(c.config, c.repositories.User)

	svc, err := ProvideWorkflowService(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Resolver:   c.resolver,
		Dispatcher: c.dispatcher,
		Metrics:    c.metrics,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = svc
	return nil
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Workflow returns the workflow service facade.
func (c *Container) Workflow() *service.WorkflowService {
	return c.workflow
}

// Tokens returns the token service, or nil when no JWT secret is configured.
func (c *Container) Tokens() *auth.TokenService {
	return c.tokens
}

// Server returns the HTTP server.
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces used by
// the dispatcher, service and HTTP layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
