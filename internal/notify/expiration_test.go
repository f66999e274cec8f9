package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	subDomain "github.com/gazify-app/service-membership/internal/domain/subscriber"
)

type fakeSubscriberRepo struct {
	subDomain.Repository
	expiring     []*subDomain.Subscriber
	wantBoundary time.Time
	t            *testing.T
}

func (r *fakeSubscriberRepo) ListExpiring(_ context.Context, endDate time.Time) ([]*subDomain.Subscriber, error) {
	if !r.wantBoundary.IsZero() {
		assert.Equal(r.t, r.wantBoundary, endDate)
	}
	return r.expiring, nil
}

type recordingDispatcher struct {
	sent    []Notification
	failFor map[string]error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, n Notification) error {
	if err, ok := d.failFor[n.Destination]; ok {
		return err
	}
	d.sent = append(d.sent, n)
	return nil
}

func expiringSubscriber(id uint64, email string, end time.Time) *subDomain.Subscriber {
	return subDomain.Reconstitute(id, subDomain.Profile{
		FirstName:    "Sara",
		LastName:     "Ali",
		Email:        email,
		MobileNumber: "01000000000",
		NationalID:   "29001011234567",
	}, false, []subDomain.Subscription{
		{ID: id * 10, StartDate: end.AddDate(-1, 0, 0), EndDate: end},
	}, "user-1", time.Now(), "", nil, 1)
}

func testGuard(t *testing.T) *ScanGuard {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewScanGuard(client)
}

func TestScanSendsAlertAtExactBoundary(t *testing.T) {
	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	boundary := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	repo := &fakeSubscriberRepo{
		t:            t,
		wantBoundary: boundary,
		expiring:     []*subDomain.Subscriber{expiringSubscriber(1, "sara@example.com", boundary)},
	}
	dispatcher := &recordingDispatcher{}
	n := NewExpirationNotifier(repo, dispatcher, testGuard(t), 5, zap.NewNop())

	report, err := n.Scan(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "sara@example.com", dispatcher.sent[0].Destination)
	assert.Equal(t, "Gazify Subscription Expiration", dispatcher.sent[0].Subject)
	assert.Contains(t, dispatcher.sent[0].Body, "15 Mar, 2025")
}

func TestScanSecondRunSameDayIsSkipped(t *testing.T) {
	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	boundary := today.AddDate(0, 0, 5)

	repo := &fakeSubscriberRepo{
		t:        t,
		expiring: []*subDomain.Subscriber{expiringSubscriber(1, "sara@example.com", boundary)},
	}
	dispatcher := &recordingDispatcher{}
	n := NewExpirationNotifier(repo, dispatcher, testGuard(t), 5, zap.NewNop())

	first, err := n.Scan(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	second, err := n.Scan(context.Background(), today)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Len(t, dispatcher.sent, 1, "no duplicate alert on a re-run")
}

func TestScanAlertClaimDedupesPerSubscriber(t *testing.T) {
	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	boundary := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	guard := testGuard(t)
	day := subDomain.Date(today)

	// Subscriber 1 was already alerted today, e.g. by a run that lost the
	// scan lock midway.
	claimed, err := guard.ClaimAlert(context.Background(), 1, day)
	require.NoError(t, err)
	require.True(t, claimed)

	repo := &fakeSubscriberRepo{
		t: t,
		expiring: []*subDomain.Subscriber{
			expiringSubscriber(1, "sara@example.com", boundary),
			expiringSubscriber(2, "omar@example.com", boundary),
		},
	}
	dispatcher := &recordingDispatcher{}
	n := NewExpirationNotifier(repo, dispatcher, guard, 5, zap.NewNop())

	report, err := n.Scan(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Deduped)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "omar@example.com", dispatcher.sent[0].Destination)
}

func TestScanIsolatesDispatchFailures(t *testing.T) {
	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	boundary := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	repo := &fakeSubscriberRepo{
		t: t,
		expiring: []*subDomain.Subscriber{
			expiringSubscriber(1, "broken@example.com", boundary),
			expiringSubscriber(2, "omar@example.com", boundary),
		},
	}
	dispatcher := &recordingDispatcher{
		failFor: map[string]error{"broken@example.com": errors.New("broker unavailable")},
	}
	n := NewExpirationNotifier(repo, dispatcher, testGuard(t), 5, zap.NewNop())

	report, err := n.Scan(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "omar@example.com", dispatcher.sent[0].Destination)
}

func TestScanProceedsWithoutGuard(t *testing.T) {
	today := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	boundary := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	repo := &fakeSubscriberRepo{
		t:        t,
		expiring: []*subDomain.Subscriber{expiringSubscriber(1, "sara@example.com", boundary)},
	}
	dispatcher := &recordingDispatcher{}
	n := NewExpirationNotifier(repo, dispatcher, nil, 5, zap.NewNop())

	report, err := n.Scan(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
}
