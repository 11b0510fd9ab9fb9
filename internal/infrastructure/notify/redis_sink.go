package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// DefaultChannel is the pub/sub channel used when none is configured
const DefaultChannel = "expense.events"

// RedisSink publishes each event as JSON for real-time consumers
type RedisSink struct {
	publisher port.EventPublisher
	channel   string
}

// NewRedisSink creates a new RedisSink
func NewRedisSink(publisher port.EventPublisher, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{publisher: publisher, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Emit(ctx context.Context, evt *event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.ID, err)
	}
	return s.publisher.Publish(ctx, s.channel, payload)
}
