package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNilNotifier is returned when the notification handler is constructed
// without a notifier.
var ErrNilNotifier = errors.New("notifier cannot be nil")

// Notifier delivers a notification to a user over some channel
// (email, push, ...).
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, message string) error
}

// SendNotificationPayload is the serialized parameter set of a
// send_notification task.
type SendNotificationPayload struct {
	UserID           int64  `json:"user_id"`
	NotificationType string `json:"notification_type"`
	Message          string `json:"message"`
}

// SendNotificationHandler delivers user notifications. Not unique: the same
// user may legitimately receive identical notifications more than once.
type SendNotificationHandler struct {
	notifier Notifier
	backoff  BackoffPolicy
	logger   *slog.Logger
}

// NewSendNotificationHandler creates the send_notification handler.
func NewSendNotificationHandler(notifier Notifier, logger *slog.Logger) (*SendNotificationHandler, error) {
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &SendNotificationHandler{
		notifier: notifier,
		backoff:  ExponentialBackoff{Base: 30 * time.Second, Max: 30 * time.Minute},
		logger:   logger.With("task_type", TypeSendNotification),
	}, nil
}

func (h *SendNotificationHandler) Type() string   { return TypeSendNotification }
func (h *SendNotificationHandler) IsUnique() bool { return false }
func (h *SendNotificationHandler) MaxRetries() int { return 5 }
func (h *SendNotificationHandler) Backoff(attempt int) time.Duration {
	return h.backoff.NextDelay(attempt)
}
func (h *SendNotificationHandler) Schedule() string { return "" }

// Execute delivers the notification through the configured notifier.
func (h *SendNotificationHandler) Execute(ctx context.Context, payload json.RawMessage) error {
	var p SendNotificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("invalid send_notification payload: %w", err)
	}

	if err := h.notifier.Notify(ctx, p.UserID, p.NotificationType, p.Message); err != nil {
		return fmt.Errorf("failed to send %s notification to user %d: %w", p.NotificationType, p.UserID, err)
	}

	h.logger.Info("notification sent",
		"user_id", p.UserID,
		"notification_type", p.NotificationType)
	return nil
}

// LogNotifier is a Notifier that records deliveries in the log. Stands in
// for a real delivery channel in development.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, userID int64, kind, message string) error {
	n.Logger.Info("delivering notification",
		"user_id", userID,
		"notification_type", kind,
		"message", message)
	return nil
}
