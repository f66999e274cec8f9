package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers a rendered notification to its destination.
type Mailer interface {
	Send(ctx context.Context, destination, subject, body string) error
}

// LogMailer is the development Mailer; it records the delivery instead of
// talking to an SMTP relay.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the would-be delivery.
func (m *LogMailer) Send(ctx context.Context, destination, subject, body string) error {
	m.logger.Info("[MAIL] delivered",
		zap.String("to", destination),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
