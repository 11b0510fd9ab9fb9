// Package service exposes the public expense workflow operations. Each call
// resolves the acting user, runs the engine or a projection, and emits
// notification events after a successful write.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/projector"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Recorder receives per-operation outcomes
type Recorder interface {
	ObserveOperation(operation, outcome string, d time.Duration)
}

const tracerName = "github.com/garyjia/expense-approval/internal/application/service"

// WorkflowService is the entry point used by transports
type WorkflowService struct {
	resolver      port.ActorResolver
	engine        workflow.Engine
	projector     *projector.Projector
	notifications port.NotificationRepository
	reports       port.ExpenseReportWriter
	dispatcher    dispatcher.Dispatcher
	recorder      Recorder
	tracer        trace.Tracer
	logger        Logger
}

// Option configures optional collaborators
type Option func(*WorkflowService)

// WithRecorder sets the operation metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *WorkflowService) {
		s.recorder = r
	}
}

// WithTracer overrides the global otel tracer
func WithTracer(t trace.Tracer) Option {
	return func(s *WorkflowService) {
		s.tracer = t
	}
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	resolver port.ActorResolver,
	engine workflow.Engine,
	proj *projector.Projector,
	notifications port.NotificationRepository,
	reports port.ExpenseReportWriter,
	d dispatcher.Dispatcher,
	logger Logger,
	opts ...Option,
) *WorkflowService {
	s := &WorkflowService{
		resolver:      resolver,
		engine:        engine,
		projector:     proj,
		notifications: notifications,
		reports:       reports,
		dispatcher:    d,
		tracer:        otel.Tracer(tracerName),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentActor returns the identity behind the request context
func (s *WorkflowService) CurrentActor(ctx context.Context) (entity.Actor, error) {
	return s.resolver.ResolveActor(ctx)
}

// run resolves the actor and wraps fn in a span and an outcome metric
func run[T any](ctx context.Context, s *WorkflowService, operation string, fn func(ctx context.Context, actor entity.Actor) (T, error)) (T, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "WorkflowService."+operation)
	defer span.End()

	var result T
	actor, err := s.resolver.ResolveActor(ctx)
	if err == nil {
		span.SetAttributes(
			attribute.Int64("actor.id", actor.UserID),
			attribute.String("actor.role", string(actor.Role)),
		)
		result, err = fn(ctx, actor)
	}

	outcome := "success"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "failure"
			s.logger.Error("Workflow operation failed", "operation", operation, "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.recorder != nil {
		s.recorder.ObserveOperation(operation, outcome, time.Since(start))
	}
	return result, err
}

// emit hands events to the dispatcher without waiting for delivery
func (s *WorkflowService) emit(ctx context.Context, evts ...*event.Event) {
	if s.dispatcher == nil || len(evts) == 0 {
		return
	}
	s.dispatcher.DispatchAsync(ctx, evts...)
}
