//go:build integration

package main_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazify-app/service-membership/internal/notify"
	"github.com/gazify-app/service-membership/internal/repository"
)

// TestCreateSubscriber_DeliversWelcomeEmail verifies that creating a
// subscriber publishes a notification request to Kafka and that the delivery
// worker picks it up and hands it to the mailer.
func TestCreateSubscriber_DeliversWelcomeEmail(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMembershipStack(t, infra.DB, infra.KafkaBrokers, time.Now)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Worker.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Worker.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	form := uniqueForm(1)
	dto, err := stack.Subscribers.Create(ctx, "reception-1", form)
	require.NoError(t, err)
	require.Len(t, dto.Subscriptions, 1)

	mail := waitForDelivery(t, stack.Mailer, form.Email, "Welcome to Gazify", 20*time.Second)
	assert.Contains(t, mail.Body, "Hey Sara Ali,")

	ce := consumeOneEvent(t, infra.KafkaBrokers, notify.TopicNotifications,
		notify.EventNotificationRequested, 15*time.Second)
	assert.Equal(t, "service-membership", ce.Source)
}

// TestRenew_PersistsContiguousPeriod verifies that a renewal before expiry
// appends a second period starting the day after the first one ends, and that
// the renewal confirmation is delivered.
func TestRenew_PersistsContiguousPeriod(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMembershipStack(t, infra.DB, infra.KafkaBrokers, time.Now)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Worker.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Worker.Start(ctx) }()
	time.Sleep(3 * time.Second)

	form := uniqueForm(2)
	created, err := stack.Subscribers.Create(ctx, "reception-1", form)
	require.NoError(t, err)

	renewed, err := stack.Subscribers.Renew(ctx, "reception-2", created.Key)
	require.NoError(t, err)

	firstEnd, err := time.Parse("2006-01-02", created.Subscriptions[0].EndDate)
	require.NoError(t, err)
	renewedStart, err := time.Parse("2006-01-02", renewed.StartDate)
	require.NoError(t, err)
	assert.Equal(t, firstEnd.AddDate(0, 0, 1), renewedStart)

	var count int64
	require.NoError(t, infra.DB.Model(&repository.SubscriptionModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	waitForDelivery(t, stack.Mailer, form.Email, "Gazify Subscription Renewal", 20*time.Second)
}

// TestConcurrentRenewals_SerializeUnderRowLock verifies that simultaneous
// renewals of the same subscriber never produce overlapping periods.
func TestConcurrentRenewals_SerializeUnderRowLock(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMembershipStack(t, infra.DB, infra.KafkaBrokers, time.Now)
	defer stack.CleanupProducer()

	ctx := context.Background()
	form := uniqueForm(3)
	created, err := stack.Subscribers.Create(ctx, "reception-1", form)
	require.NoError(t, err)

	const renewals = 4
	var wg sync.WaitGroup
	errs := make([]error, renewals)
	for i := 0; i < renewals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stack.Subscribers.Renew(ctx, "reception-1", created.Key)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "renewal %d", i)
	}

	var models []repository.SubscriptionModel
	require.NoError(t, infra.DB.Order("end_date asc").Find(&models).Error)
	require.Len(t, models, renewals+1)

	sort.Slice(models, func(i, j int) bool { return models[i].EndDate.Before(models[j].EndDate) })
	for i := 1; i < len(models); i++ {
		assert.Equal(t, models[i-1].EndDate.AddDate(0, 0, 1), models[i].StartDate,
			"period %d must start the day after period %d ends", i, i-1)
	}
}

// TestExpirationScan_NotifiesExactBoundary verifies that a subscriber whose
// subscription ends exactly five days out gets an alert and nobody else does.
func TestExpirationScan_NotifiesExactBoundary(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	// Freeze "today" so the created subscription's end date lands exactly on
	// the scan boundary one year later.
	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	stack := setupMembershipStack(t, infra.DB, infra.KafkaBrokers, func() time.Time { return created })
	defer stack.CleanupProducer()
	defer func() { _ = stack.Worker.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Worker.Start(ctx) }()
	time.Sleep(3 * time.Second)

	matching := uniqueForm(4)
	_, err := stack.Subscribers.Create(ctx, "reception-1", matching)
	require.NoError(t, err)

	// A second subscriber created a day later must not match the boundary.
	other := setupMembershipStack(t, infra.DB, infra.KafkaBrokers,
		func() time.Time { return created.AddDate(0, 0, 1) })
	defer other.CleanupProducer()
	otherForm := uniqueForm(5)
	_, err = other.Subscribers.Create(ctx, "reception-1", otherForm)
	require.NoError(t, err)

	// Subscription ends 2025-03-15; scanning on 2025-03-10 hits the five day
	// lead exactly.
	scanDay := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	report, err := stack.Notifier.Scan(ctx, scanDay)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Sent)

	mail := waitForDelivery(t, stack.Mailer, matching.Email, "Gazify Subscription Expiration", 20*time.Second)
	assert.Contains(t, mail.Body, "15 Mar, 2025")

	for _, n := range stack.Mailer.Delivered() {
		if n.Subject == "Gazify Subscription Expiration" {
			assert.NotEqual(t, otherForm.Email, n.Destination)
		}
	}
}
