package port

import (
	"context"
	"io"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

//go:generate mockgen -destination=mocks/external_mock.go -package=mocks . ActorResolver,NotificationSink

// ActorResolver identifies the caller of the current request. It fails with an
// Unauthenticated error when the context carries no usable identity.
type ActorResolver interface {
	ResolveActor(ctx context.Context) (entity.Actor, error)
}

// NotificationSink delivers an event to one channel. Errors are reported to the
// caller for logging only; delivery is never retried.
type NotificationSink interface {
	Name() string
	Emit(ctx context.Context, evt *event.Event) error
}

// LarkMessageSender sends a plain text message to a Lark user
type LarkMessageSender interface {
	SendText(ctx context.Context, email, text string) error
}

// EventPublisher publishes a serialized event on a broker channel
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ExpenseReportWriter renders an expense list as a spreadsheet
type ExpenseReportWriter interface {
	WriteExpenses(w io.Writer, sheet string, expenses []*entity.ExpenseRequest) error
}
