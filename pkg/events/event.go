package events

import (
	"context"
	"time"
)

// Event is anything published on the domain event bus.
type Event interface {
	// EventType is the subject suffix, e.g. "CHATBOT_CREATED".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const (
	TypeChatbotCreated     = "CHATBOT_CREATED"
	TypeChatbotDeleted     = "CHATBOT_DELETED"
	TypeChatbotFileAdded   = "CHATBOT_FILE_ADDED"
	TypeChatbotFileIndexed = "CHATBOT_FILE_INDEXED"
	TypeChatbotFileDeleted = "CHATBOT_FILE_DELETED"
	TypeSessionCreated     = "SESSION_CREATED"
	TypeSessionDeleted     = "SESSION_DELETED"
	TypeMessageCreated     = "MESSAGE_CREATED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New stamps an event with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// Publisher sends events to the bus. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
