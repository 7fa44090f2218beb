package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures deliveries.
type recordingNotifier struct {
	userIDs  []int64
	kinds    []string
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, kind, message string) error {
	if n.err != nil {
		return n.err
	}
	n.userIDs = append(n.userIDs, userID)
	n.kinds = append(n.kinds, kind)
	n.messages = append(n.messages, message)
	return nil
}

func TestSendNotificationHandlerExecute(t *testing.T) {
	t.Parallel()

	t.Run("delivers notification", func(t *testing.T) {
		t.Parallel()

		notifier := &recordingNotifier{}
		h, err := NewSendNotificationHandler(notifier, discardLogger())
		require.NoError(t, err)

		payload, _ := json.Marshal(SendNotificationPayload{
			UserID:           7,
			NotificationType: "product_ready",
			Message:          "Your product analysis finished",
		})
		require.NoError(t, h.Execute(context.Background(), payload))

		require.Len(t, notifier.userIDs, 1)
		assert.Equal(t, int64(7), notifier.userIDs[0])
		assert.Equal(t, "product_ready", notifier.kinds[0])
	})

	t.Run("delivery failure propagates", func(t *testing.T) {
		t.Parallel()

		notifier := &recordingNotifier{err: errors.New("smtp unreachable")}
		h, err := NewSendNotificationHandler(notifier, discardLogger())
		require.NoError(t, err)

		payload, _ := json.Marshal(SendNotificationPayload{UserID: 7})
		assert.Error(t, h.Execute(context.Background(), payload))
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		t.Parallel()

		h, err := NewSendNotificationHandler(&recordingNotifier{}, discardLogger())
		require.NoError(t, err)

		assert.Error(t, h.Execute(context.Background(), json.RawMessage(`{`)))
	})
}

func TestSendNotificationHandlerMetadata(t *testing.T) {
	t.Parallel()

	h, err := NewSendNotificationHandler(&recordingNotifier{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, TypeSendNotification, h.Type())
	assert.False(t, h.IsUnique(), "identical notifications may repeat")
	assert.Equal(t, 5, h.MaxRetries())
	assert.Empty(t, h.Schedule())
	assert.Equal(t, 30.0, h.Backoff(1).Seconds())
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	n := &LogNotifier{Logger: discardLogger()}
	assert.NoError(t, n.Notify(context.Background(), 1, "test", "hello"))
}
