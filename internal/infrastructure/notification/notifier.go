package notification

import (
	"context"

	"go.uber.org/zap"
)

// Audience identifies who a notification is addressed to
type Audience string

const (
	// AudienceUser targets a single user, named in Notification.Recipient
	AudienceUser Audience = "user"
	// AudienceManagement targets all admins and branch managers
	AudienceManagement Audience = "management"
)

// Notification is a message produced by a domain event
type Notification struct {
	Audience  Audience          `json:"audience"`
	Recipient string            `json:"recipient,omitempty"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Notifier delivers notifications to their audience.
// Implementations can support different channels (in-app, email, SMS, etc.)
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the application log.
// Useful for development and as a fallback when no channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new logging notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the notification
func (n *LogNotifier) Send(ctx context.Context, notification Notification) error {
	fields := []zap.Field{
		zap.String("audience", string(notification.Audience)),
		zap.String("subject", notification.Subject),
		zap.String("body", notification.Body),
	}
	if notification.Recipient != "" {
		fields = append(fields, zap.String("recipient", notification.Recipient))
	}
	n.logger.Info("notification", fields...)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
