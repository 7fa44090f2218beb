package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks for a background task to be scheduled. The Type
// tag must match a registered task type on the consuming side; the payload
// is carried opaquely as JSON.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTaskRequestEvent builds an event of the given type, serializing the
// payload to JSON.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to whatever handlers are registered,
// letting emitters stay ignorant of who consumes them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
