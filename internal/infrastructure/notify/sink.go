// Package notify implements the notification sinks fed by the event dispatcher.
package notify

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// Counter records sink delivery outcomes
type Counter interface {
	IncrementNotification(sink, outcome string)
}

// Register subscribes each sink to every event type. counter may be nil.
func Register(d dispatcher.Dispatcher, counter Counter, sinks ...port.NotificationSink) {
	for _, sink := range sinks {
		sink := sink
		d.Subscribe(dispatcher.AnyType, sink.Name(), func(ctx context.Context, evt *event.Event) error {
			err := sink.Emit(ctx, evt)
			if counter != nil {
				outcome := "success"
				if err != nil {
					outcome = "failure"
				}
				counter.IncrementNotification(sink.Name(), outcome)
			}
			return err
		})
	}
}

// recipients expands an audience into users
func recipients(ctx context.Context, users port.UserRepository, audience event.Audience) ([]*entity.User, error) {
	if audience.IsBroadcast() {
		list, err := users.ListByRole(ctx, audience.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s users: %w", audience.Role, err)
		}
		return list, nil
	}

	u, err := users.GetByID(ctx, audience.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", audience.UserID, err)
	}
	if u == nil {
		return nil, fmt.Errorf("recipient %d does not exist", audience.UserID)
	}
	return []*entity.User{u}, nil
}
