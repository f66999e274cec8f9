package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	subDomain "github.com/gazify-app/service-membership/internal/domain/subscriber"
)

// DefaultLeadDays is how many days before expiry the alert goes out.
const DefaultLeadDays = 5

// ScanReport summarizes one expiration scan run.
type ScanReport struct {
	Date    time.Time
	Matched int
	Sent    int
	Deduped int
	Failed  int
	Skipped bool
}

// ExpirationNotifier scans for subscribers whose current subscription ends
// exactly leadDays from now and enqueues one alert per subscriber per day.
type ExpirationNotifier struct {
	repo       subDomain.Repository
	dispatcher Dispatcher
	guard      *ScanGuard
	leadDays   int
	logger     *zap.Logger
}

// NewExpirationNotifier creates the notifier. leadDays <= 0 falls back to the
// default of five days.
func NewExpirationNotifier(repo subDomain.Repository, dispatcher Dispatcher, guard *ScanGuard, leadDays int, logger *zap.Logger) *ExpirationNotifier {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return &ExpirationNotifier{
		repo:       repo,
		dispatcher: dispatcher,
		guard:      guard,
		leadDays:   leadDays,
		logger:     logger,
	}
}

// Scan runs one expiration pass for the given day. The selection is a pure
// read+filter on the exact boundary date, so the same day's match set is
// stable across invocations. A per-date advisory lock stops a double-fired
// schedule from running the whole scan twice, and a per-subscriber claim
// stops a duplicate alert even if the lock is lost. One subscriber's dispatch
// failure never aborts the rest of the iteration.
func (n *ExpirationNotifier) Scan(ctx context.Context, today time.Time) (ScanReport, error) {
	day := subDomain.Date(today)
	report := ScanReport{Date: day}

	if n.guard != nil {
		claimed, err := n.guard.ClaimScan(ctx, day)
		if err != nil {
			// Redis being down must not silence the alerts; run anyway and
			// rely on the exact-date match for idempotency.
			n.logger.Warn("scan lock unavailable, proceeding without it", zap.Error(err))
		} else if !claimed {
			n.logger.Info("expiration scan already ran today, skipping",
				zap.String("date", day.Format("2006-01-02")),
			)
			report.Skipped = true
			return report, nil
		}
	}

	boundary := day.AddDate(0, 0, n.leadDays)
	subscribers, err := n.repo.ListExpiring(ctx, boundary)
	if err != nil {
		return report, err
	}
	report.Matched = len(subscribers)

	n.logger.Info("expiration scan",
		zap.String("date", day.Format("2006-01-02")),
		zap.String("boundary", boundary.Format("2006-01-02")),
		zap.Int("matched", len(subscribers)),
	)

	for _, s := range subscribers {
		cur, ok := s.CurrentSubscription()
		if !ok {
			continue
		}

		if n.guard != nil {
			claimed, err := n.guard.ClaimAlert(ctx, s.ID(), day)
			if err != nil {
				n.logger.Warn("alert dedupe unavailable, sending anyway",
					zap.Uint64("subscriber_id", s.ID()),
					zap.Error(err),
				)
			} else if !claimed {
				report.Deduped++
				continue
			}
		}

		notification := ExpirationNotification(
			s.Email(),
			s.FirstName(),
			cur.EndDate.Format(EndDateFormat),
		)
		if err := n.dispatcher.Enqueue(ctx, notification); err != nil {
			report.Failed++
			n.logger.Error("failed to enqueue expiration alert",
				zap.Uint64("subscriber_id", s.ID()),
				zap.Error(err),
			)
			continue
		}
		report.Sent++
	}

	n.logger.Info("expiration scan finished",
		zap.Int("sent", report.Sent),
		zap.Int("deduped", report.Deduped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
