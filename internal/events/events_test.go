package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequestEvent(t *testing.T) {
	type fetchPayload struct {
		Barcode string `json:"barcode"`
	}

	event, err := NewTaskRequestEvent("fetch_product", fetchPayload{Barcode: "0123456789012"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "fetch_product", event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded fetchPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "0123456789012", decoded.Barcode)
}

func TestNewTaskRequestEventUnserializablePayload(t *testing.T) {
	_, err := NewTaskRequestEvent("fetch_product", make(chan int))
	assert.Error(t, err)
}

// recordingHandler captures delivered events for assertions.
type recordingHandler struct {
	events []*TaskRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}
