package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/expense-approval/internal/domain/event"
)

// Dispatcher fans notification events out to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler for an event type, or AnyType for all of them
	Subscribe(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs all matching handlers in order and returns the joined errors.
	// A failing handler does not stop the others.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs matching handlers in the background. The caller's
	// cancellation is not propagated to them.
	DispatchAsync(ctx context.Context, evts ...*event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close rejects new events and waits for in-flight async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	// lifecycle guards closed and wg.Add against Close
	lifecycle sync.RWMutex
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	}
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered

	d.logInfo("Handler unregistered", "event_type", eventType, "handler_name", name)
}

// matching returns type-specific handlers followed by catch-all handlers
func (d *eventDispatcher) matching(t event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	specific := d.handlers[t]
	all := d.handlers[AnyType]
	out := make([]HandlerInfo, 0, len(specific)+len(all))
	out = append(out, specific...)
	return append(out, all...)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	handlers := d.matching(evt.Type)
	d.logInfo("Dispatching event", "event_type", evt.Type, "event_id", evt.ID, "handler_count", len(handlers))

	var errs []error
	for _, h := range handlers {
		if err := d.safeExecute(ctx, evt, h); err != nil {
			d.logError("Handler error", "event_type", evt.Type, "event_id", evt.ID, "handler_name", h.Name, "error", err)
			errs = append(errs, fmt.Errorf("handler %s failed: %w", h.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evts ...*event.Event) {
	ctx = context.WithoutCancel(ctx)

	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()

	for _, evt := range evts {
		if d.closed.Load() {
			d.logError("Cannot dispatch async event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
			return
		}

		handlers := d.matching(evt.Type)
		d.logInfo("Dispatching event asynchronously", "event_type", evt.Type, "event_id", evt.ID, "handler_count", len(handlers))

		d.wg.Add(len(handlers))
		for _, info := range handlers {
			go func(evt *event.Event, h HandlerInfo) {
				defer d.wg.Done()
				if err := d.safeExecute(ctx, evt, h); err != nil {
					d.logError("Async handler error", "event_type", evt.Type, "event_id", evt.ID, "handler_name", h.Name, "error", err)
				}
			}(evt, info)
		}
	}
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			EventType:   h.EventType,
			Description: h.Description,
		}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	// Wait for DispatchAsync calls already past their closed check to finish
	// their wg.Add before waiting on the group.
	d.lifecycle.Lock()
	swapped := d.closed.CompareAndSwap(false, true)
	d.lifecycle.Unlock()
	if !swapped {
		return fmt.Errorf("dispatcher already closed")
	}

	d.logInfo("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.logInfo("Dispatcher closed")
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.logError("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"panic", r,
			)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
