// Package subscriber contains the membership aggregate and the period math
// that governs subscription windows.
package subscriber

import (
	"sort"
	"strings"
	"time"

	"github.com/gazify-app/service-membership/internal/domain"
)

// Subscription is a single immutable membership period. Renewal never edits a
// period, it appends a new one.
type Subscription struct {
	ID          uint64
	StartDate   time.Time
	EndDate     time.Time
	CreatedByID string
	CreatedOn   time.Time
}

// Subscriber is the aggregate root for a member of the service, together with
// the full ordered history of subscription periods.
type Subscriber struct {
	id              uint64
	firstName       string
	lastName        string
	email           string
	mobileNumber    string
	nationalID      string
	governorate     string
	area            string
	address         string
	imageURL        string
	imageThumbURL   string
	isBlackListed   bool
	subscriptions   []Subscription
	createdByID     string
	createdOn       time.Time
	lastUpdatedByID string
	lastUpdatedOn   *time.Time
	version         int64
}

// Profile holds the mutable identity attributes of a subscriber.
type Profile struct {
	FirstName     string
	LastName      string
	Email         string
	MobileNumber  string
	NationalID    string
	Governorate   string
	Area          string
	Address       string
	ImageURL      string
	ImageThumbURL string
}

// NewSubscriber builds a subscriber with exactly one initial subscription
// period starting today. The aggregate is not valid without that period, so
// the two are created together.
func NewSubscriber(p Profile, createdBy string, now, today time.Time) *Subscriber {
	start, end := FirstPeriod(today)
	return &Subscriber{
		firstName:     strings.TrimSpace(p.FirstName),
		lastName:      strings.TrimSpace(p.LastName),
		email:         strings.ToLower(strings.TrimSpace(p.Email)),
		mobileNumber:  strings.TrimSpace(p.MobileNumber),
		nationalID:    strings.TrimSpace(p.NationalID),
		governorate:   p.Governorate,
		area:          p.Area,
		address:       p.Address,
		imageURL:      p.ImageURL,
		imageThumbURL: p.ImageThumbURL,
		subscriptions: []Subscription{{
			StartDate:   start,
			EndDate:     end,
			CreatedByID: createdBy,
			CreatedOn:   now,
		}},
		createdByID: createdBy,
		createdOn:   now,
		version:     1,
	}
}

// Reconstitute rebuilds a Subscriber from persistence.
func Reconstitute(
	id uint64,
	p Profile,
	isBlackListed bool,
	subscriptions []Subscription,
	createdByID string, createdOn time.Time,
	lastUpdatedByID string, lastUpdatedOn *time.Time,
	version int64,
) *Subscriber {
	return &Subscriber{
		id:              id,
		firstName:       p.FirstName,
		lastName:        p.LastName,
		email:           p.Email,
		mobileNumber:    p.MobileNumber,
		nationalID:      p.NationalID,
		governorate:     p.Governorate,
		area:            p.Area,
		address:         p.Address,
		imageURL:        p.ImageURL,
		imageThumbURL:   p.ImageThumbURL,
		isBlackListed:   isBlackListed,
		subscriptions:   subscriptions,
		createdByID:     createdByID,
		createdOn:       createdOn,
		lastUpdatedByID: lastUpdatedByID,
		lastUpdatedOn:   lastUpdatedOn,
		version:         version,
	}
}

func (s *Subscriber) ID() uint64               { return s.id }
func (s *Subscriber) FirstName() string        { return s.firstName }
func (s *Subscriber) LastName() string         { return s.lastName }
func (s *Subscriber) FullName() string         { return s.firstName + " " + s.lastName }
func (s *Subscriber) Email() string            { return s.email }
func (s *Subscriber) MobileNumber() string     { return s.mobileNumber }
func (s *Subscriber) NationalID() string       { return s.nationalID }
func (s *Subscriber) Governorate() string      { return s.governorate }
func (s *Subscriber) Area() string             { return s.area }
func (s *Subscriber) Address() string          { return s.address }
func (s *Subscriber) ImageURL() string         { return s.imageURL }
func (s *Subscriber) ImageThumbURL() string    { return s.imageThumbURL }
func (s *Subscriber) IsBlackListed() bool      { return s.isBlackListed }
func (s *Subscriber) CreatedByID() string      { return s.createdByID }
func (s *Subscriber) CreatedOn() time.Time     { return s.createdOn }
func (s *Subscriber) LastUpdatedByID() string  { return s.lastUpdatedByID }
func (s *Subscriber) LastUpdatedOn() *time.Time { return s.lastUpdatedOn }
func (s *Subscriber) Version() int64           { return s.version }

// Subscriptions returns the period history ordered by ascending end date.
func (s *Subscriber) Subscriptions() []Subscription {
	out := make([]Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out
}

// CurrentSubscription returns the period with the latest end date. Insertion
// order is incidental; the maximum end date is authoritative.
func (s *Subscriber) CurrentSubscription() (Subscription, bool) {
	if len(s.subscriptions) == 0 {
		return Subscription{}, false
	}
	cur := s.subscriptions[0]
	for _, sub := range s.subscriptions[1:] {
		if sub.EndDate.After(cur.EndDate) {
			cur = sub
		}
	}
	return cur, true
}

// IsActive reports whether the subscriber has a period covering today.
func (s *Subscriber) IsActive(today time.Time) bool {
	cur, ok := s.CurrentSubscription()
	return ok && !cur.EndDate.Before(Date(today))
}

// Renew appends the next subscription period. Renewal is categorically
// forbidden for blacklisted subscribers.
func (s *Subscriber) Renew(renewedBy string, now, today time.Time) (Subscription, error) {
	if s.isBlackListed {
		return Subscription{}, domain.NewBlacklistedError(s.id)
	}

	var start, end time.Time
	if cur, ok := s.CurrentSubscription(); ok {
		start, end = NextPeriod(cur, today)
	} else {
		start, end = FirstPeriod(today)
	}

	sub := Subscription{
		StartDate:   start,
		EndDate:     end,
		CreatedByID: renewedBy,
		CreatedOn:   now,
	}
	s.subscriptions = append(s.subscriptions, sub)
	s.touch(renewedBy, now)
	return sub, nil
}

// UpdateProfile replaces the identity attributes, keeping image URLs when the
// incoming profile leaves them empty.
func (s *Subscriber) UpdateProfile(p Profile, updatedBy string, now time.Time) {
	if p.ImageURL == "" {
		p.ImageURL = s.imageURL
		p.ImageThumbURL = s.imageThumbURL
	}
	s.firstName = strings.TrimSpace(p.FirstName)
	s.lastName = strings.TrimSpace(p.LastName)
	s.email = strings.ToLower(strings.TrimSpace(p.Email))
	s.mobileNumber = strings.TrimSpace(p.MobileNumber)
	s.nationalID = strings.TrimSpace(p.NationalID)
	s.governorate = p.Governorate
	s.area = p.Area
	s.address = p.Address
	s.imageURL = p.ImageURL
	s.imageThumbURL = p.ImageThumbURL
	s.touch(updatedBy, now)
}

// ToggleBlacklist flips the blacklist flag and returns the new value.
func (s *Subscriber) ToggleBlacklist(updatedBy string, now time.Time) bool {
	s.isBlackListed = !s.isBlackListed
	s.touch(updatedBy, now)
	return s.isBlackListed
}

func (s *Subscriber) touch(by string, now time.Time) {
	s.lastUpdatedByID = by
	s.lastUpdatedOn = &now
	s.version++
}
