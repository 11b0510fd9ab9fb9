package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Audience addresses an event either to one user or to every user holding a role
type Audience struct {
	Role   entity.Role `json:"targetRole"`
	UserID int64       `json:"targetUserId,omitempty"`
}

// ToUser addresses a single user
func ToUser(role entity.Role, userID int64) Audience {
	return Audience{Role: role, UserID: userID}
}

// ToRole addresses every user with the role
func ToRole(role entity.Role) Audience {
	return Audience{Role: role}
}

// IsBroadcast is true when the audience is a whole role
func (a Audience) IsBroadcast() bool {
	return a.UserID == 0
}

// Event is a notification emitted after a successful workflow operation
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	ExpenseID     int64                  `json:"expenseId"`
	ActorID       int64                  `json:"actorId,omitempty"`
	Audience      Audience               `json:"audience"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlationId"`
}

// NewEvent creates an event with a fresh ID, timestamp and correlation ID
func NewEvent(eventType Type, expenseID int64, audience Audience, title, message string, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		ExpenseID:     expenseID,
		Audience:      audience,
		Title:         title,
		Message:       message,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// TriggeredBy returns a copy attributed to the acting user
func (e *Event) TriggeredBy(actorID int64) *Event {
	cp := *e
	cp.ActorID = actorID
	return &cp
}

// WithCorrelation returns a copy sharing the given correlation ID
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := *e
	cp.CorrelationID = correlationID
	return &cp
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
