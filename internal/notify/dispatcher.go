// Package notify carries the notification pipeline: business operations
// enqueue notifications fire-and-forget, a Kafka-backed worker delivers them,
// and the expiration notifier feeds the pipeline from its daily scan.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/gazify-app/service-membership/internal/platform/kafka"
)

// TopicNotifications is the Kafka topic notification requests travel on.
const TopicNotifications = "membership.notifications"

// EventNotificationRequested is the CloudEvent type for a queued notification.
const EventNotificationRequested = "notification.requested"

// Notification is a rendered message addressed to a subscriber.
type Notification struct {
	Destination string `json:"destination"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Dispatcher hands notifications to the asynchronous delivery pipeline.
// Enqueue is fire-and-forget from the caller's perspective: delivery happens
// later, with at-least-once semantics owned by the worker.
type Dispatcher interface {
	Enqueue(ctx context.Context, n Notification) error
}

// KafkaDispatcher publishes notification requests as CloudEvents.
type KafkaDispatcher struct {
	producer *kafka.Producer
	source   string
	logger   *zap.Logger
}

// NewKafkaDispatcher creates a dispatcher publishing on behalf of source.
func NewKafkaDispatcher(producer *kafka.Producer, source string, logger *zap.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer, source: source, logger: logger}
}

// Enqueue publishes the notification to the notifications topic.
func (d *KafkaDispatcher) Enqueue(ctx context.Context, n Notification) error {
	ce, err := kafka.NewCloudEvent(d.source, EventNotificationRequested, n)
	if err != nil {
		return err
	}
	if err := d.producer.PublishEvent(ctx, TopicNotifications, ce); err != nil {
		return err
	}
	d.logger.Debug("notification enqueued",
		zap.String("destination", n.Destination),
		zap.String("subject", n.Subject),
	)
	return nil
}
