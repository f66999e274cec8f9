//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gazify-app/service-membership/internal/application"
	"github.com/gazify-app/service-membership/internal/notify"
	"github.com/gazify-app/service-membership/internal/platform/kafka"
	"github.com/gazify-app/service-membership/internal/repository"
	"github.com/gazify-app/service-membership/internal/token"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// membershipStack holds wired-up membership service components.
type membershipStack struct {
	Subscribers     *application.SubscriberService
	Repo            *repository.GormSubscriberRepository
	Notifier        *notify.ExpirationNotifier
	Worker          *notify.Worker
	Mailer          *capturingMailer
	Now             func() time.Time
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_membership",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_membership sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.SubscriberModel{},
		&repository.SubscriptionModel{},
		&repository.ReadingModel{},
	))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, notify.TopicNotifications)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// capturingMailer records every delivery for assertions.
type capturingMailer struct {
	mu        sync.Mutex
	delivered []notify.Notification
}

func (m *capturingMailer) Send(_ context.Context, destination, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, notify.Notification{Destination: destination, Subject: subject, Body: body})
	return nil
}

func (m *capturingMailer) Delivered() []notify.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Notification, len(m.delivered))
	copy(out, m.delivered)
	return out
}

// setupMembershipStack wires up the full membership service stack. The redis
// guard is left out; notifier dedupe behavior is covered by its unit tests.
func setupMembershipStack(t *testing.T, db *gorm.DB, brokers []string, now func() time.Time) *membershipStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	repo := repository.NewGormSubscriberRepository(db)
	protector, err := token.New("integration-secret", "subscriber-id")
	require.NoError(t, err)

	producer := kafka.NewProducer(brokers, logger)
	dispatcher := notify.NewKafkaDispatcher(producer, "service-membership", logger)
	subscriberSvc := application.NewSubscriberService(repo, protector, dispatcher, now, logger)
	notifier := notify.NewExpirationNotifier(repo, dispatcher, nil, notify.DefaultLeadDays, logger)

	mailer := &capturingMailer{}
	groupID := fmt.Sprintf("test-membership-%s", uuid.New().String()[:8])
	worker := notify.NewWorker(brokers, groupID, mailer, logger)

	return &membershipStack{
		Subscribers:     subscriberSvc,
		Repo:            repo,
		Notifier:        notifier,
		Worker:          worker,
		Mailer:          mailer,
		Now:             now,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// uniqueForm builds a subscriber form with unique contact fields per call.
func uniqueForm(n int) application.SubscriberForm {
	suffix := strconv.Itoa(n)
	return application.SubscriberForm{
		FirstName:    "Sara",
		LastName:     "Ali",
		Email:        "sara" + suffix + "@example.com",
		MobileNumber: "010012345" + fmt.Sprintf("%02d", n),
		NationalID:   "298051201012" + fmt.Sprintf("%02d", n),
		Governorate:  "Cairo",
		Area:         "Madinaty",
	}
}

// waitForDelivery polls the capturing mailer until a message with the subject
// arrives at the destination.
func waitForDelivery(t *testing.T, mailer *capturingMailer, destination, subject string, timeout time.Duration) notify.Notification {
	t.Helper()
	var result notify.Notification
	require.Eventually(t, func() bool {
		for _, n := range mailer.Delivered() {
			if n.Destination == destination && n.Subject == subject {
				result = n
				return true
			}
		}
		return false
	}, timeout, 200*time.Millisecond, "no %q delivery to %s", subject, destination)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "failed to dial Kafka controller")
	defer controllerConn.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(configs...), "failed to create topics")
}
