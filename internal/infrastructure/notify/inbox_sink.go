package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// InboxSink stores one notification row per recipient
type InboxSink struct {
	users         port.UserRepository
	notifications port.NotificationRepository
}

// NewInboxSink creates a new InboxSink
func NewInboxSink(users port.UserRepository, notifications port.NotificationRepository) *InboxSink {
	return &InboxSink{users: users, notifications: notifications}
}

func (s *InboxSink) Name() string { return "inbox" }

func (s *InboxSink) Emit(ctx context.Context, evt *event.Event) error {
	to, err := recipients(ctx, s.users, evt.Audience)
	if err != nil {
		return err
	}

	var errs []error
	for _, u := range to {
		n := &entity.Notification{
			RecipientID:   u.ID,
			ExpenseID:     evt.ExpenseID,
			TriggeredByID: evt.ActorID,
			Type:          evt.Type.String(),
			Title:         evt.Title,
			Message:       evt.Message,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("inbox for user %d: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
