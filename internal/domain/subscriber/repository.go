package subscriber

import (
	"context"
	"time"
)

// UniqueField names a subscriber attribute that must be unique across the
// whole subscriber base.
type UniqueField string

const (
	FieldEmail        UniqueField = "email"
	FieldMobileNumber UniqueField = "mobile_number"
	FieldNationalID   UniqueField = "national_id"
)

// Repository defines persistence operations for Subscriber aggregates.
type Repository interface {
	// FindByID retrieves a subscriber with its full subscription history.
	FindByID(ctx context.Context, id uint64) (*Subscriber, error)

	// FindByUniqueField retrieves a subscriber by email, mobile number or
	// national id.
	FindByUniqueField(ctx context.Context, field UniqueField, value string) (*Subscriber, error)

	// FindDuplicateField reports which unique field, if any, is already taken
	// by a subscriber other than excludeID. Pass 0 to check against everyone.
	FindDuplicateField(ctx context.Context, p Profile, excludeID uint64) (UniqueField, bool, error)

	// Create persists a new subscriber together with its initial subscription
	// in a single transaction and assigns the generated id.
	Create(ctx context.Context, s *Subscriber) error

	// Update persists profile or blacklist changes with an optimistic version
	// check.
	Update(ctx context.Context, s *Subscriber) error

	// Renew appends the next subscription period under a row lock on the
	// subscriber, so concurrent renewals of the same subscriber are
	// serialized and the period math always sees the latest current period.
	Renew(ctx context.Context, subscriberID uint64, renewedBy string, now, today time.Time) (Subscription, error)

	// ListExpiring returns all non-blacklisted subscribers whose current
	// subscription ends exactly on endDate.
	ListExpiring(ctx context.Context, endDate time.Time) ([]*Subscriber, error)

	// List returns a page of subscribers and the total count.
	List(ctx context.Context, page, limit int) ([]*Subscriber, int64, error)

	// CountByStatus returns totals for the admin dashboard: all subscribers,
	// blacklisted, and active as of today.
	CountByStatus(ctx context.Context, today time.Time) (total, blacklisted, active int64, err error)
}
