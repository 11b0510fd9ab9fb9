// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/expense-approval/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// DevMode accepts X-Dev-User-Id / X-Dev-User-Role headers as credentials
	DevMode bool
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	workflow   *service.WorkflowService
	gatherer   prometheus.Gatherer
	logger     Logger
}

// NewServer creates a new HTTP server for the workflow service. gatherer may be nil
// to leave /metrics unregistered.
func NewServer(
	config ServerConfig,
	workflow *service.WorkflowService,
	gatherer prometheus.Gatherer,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		workflow: workflow,
		gatherer: gatherer,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(credentialsMiddleware(s.config.DevMode))
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.workflow, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.router.Group("/api")
	api.GET("/auth/me", h.Me)

	expenses := api.Group("/expenses")
	{
		// Employee
		expenses.POST("", h.CreateExpense)
		expenses.GET("/my-expenses", h.ListOwn)
		expenses.GET("/my-pending", h.ListOwnPending)
		expenses.GET("/my-rejected", h.ListOwnRejected)
		expenses.GET("/:id", h.GetExpense)
		expenses.GET("/:id/history", h.GetHistory)
		expenses.PUT("/:id", h.UpdateExpense)
		expenses.DELETE("/:id", h.DeleteExpense)

		// Manager
		expenses.GET("/pending-manager-approval", h.ListPendingForManager)
		expenses.GET("/approved-by-manager", h.ListApprovedByManager)
		expenses.GET("/manager-history", h.ListManagerHistory)
		expenses.POST("/:id/approve", h.ManagerApprove)
		expenses.POST("/:id/reject", h.ManagerReject)

		// Finance
		expenses.GET("/pending-finance-approval", h.ListPendingForFinance)
		expenses.GET("/approved-by-finance", h.ListApprovedByFinance)
		expenses.GET("/finance-history", h.ListFinanceHistory)
		expenses.GET("/finance-history/export", h.ExportFinanceHistory)
		expenses.POST("/:id/finance-approve", h.FinanceApprove)
		expenses.POST("/:id/finance-reject", h.FinanceReject)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread/count", h.UnreadCount)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
