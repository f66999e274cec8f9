package notify

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/gazify-app/service-membership/internal/platform/kafka"
)

// Worker drains the notifications topic and delivers each message through the
// Mailer. The consumer commits only after a successful delivery, so a failed
// send is retried: at-least-once.
type Worker struct {
	consumer *kafka.Consumer
	mailer   Mailer
	logger   *zap.Logger
}

// NewWorker creates the delivery worker.
func NewWorker(brokers []string, groupID string, mailer Mailer, logger *zap.Logger) *Worker {
	consumer := kafka.NewConsumer(brokers, groupID, TopicNotifications, logger)
	return &Worker{consumer: consumer, mailer: mailer, logger: logger}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	return w.consumer.Consume(ctx, w.handleMessage)
}

func (w *Worker) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		// Unparseable messages are dropped, not retried.
		w.logger.Error("failed to parse notification event",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil
	}

	if !strings.EqualFold(ce.Type, EventNotificationRequested) {
		w.logger.Debug("ignoring unhandled event type", zap.String("type", ce.Type))
		return nil
	}

	var n Notification
	if err := ce.ParseData(&n); err != nil {
		w.logger.Error("failed to parse notification payload", zap.Error(err))
		return nil
	}

	return w.mailer.Send(ctx, n.Destination, n.Subject, n.Body)
}

// Close closes the underlying consumer.
func (w *Worker) Close() error {
	return w.consumer.Close()
}
