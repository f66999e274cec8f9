package application

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/gazify-app/service-membership/internal/domain"
	subDomain "github.com/gazify-app/service-membership/internal/domain/subscriber"
	"github.com/gazify-app/service-membership/internal/notify"
	"github.com/gazify-app/service-membership/internal/token"
)

// SubscriberForm holds the attributes to create or update a subscriber.
type SubscriberForm struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	MobileNumber  string `json:"mobile_number"`
	NationalID    string `json:"national_id"`
	Governorate   string `json:"governorate"`
	Area          string `json:"area"`
	Address       string `json:"address"`
	ImageURL      string `json:"image_url"`
	ImageThumbURL string `json:"image_thumbnail_url"`
}

// Validate checks the form fields.
func (f SubscriberForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.MobileNumber, validation.Required, validation.Length(8, 20)),
		validation.Field(&f.NationalID, validation.Required, validation.Length(5, 20)),
	)
}

func (f SubscriberForm) profile() subDomain.Profile {
	return subDomain.Profile{
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Email:         f.Email,
		MobileNumber:  f.MobileNumber,
		NationalID:    f.NationalID,
		Governorate:   f.Governorate,
		Area:          f.Area,
		Address:       f.Address,
		ImageURL:      f.ImageURL,
		ImageThumbURL: f.ImageThumbURL,
	}
}

// SearchRequest holds the single search value matched against any unique
// contact field.
type SearchRequest struct {
	Value string `json:"value" binding:"required"`
}

// SubscriptionDTO is the API representation of one subscription period.
type SubscriptionDTO struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	CreatedOn time.Time `json:"created_on"`
}

// SubscriberDTO is the API representation of a subscriber. Key is the opaque
// external reference; the numeric id never leaves the service.
type SubscriberDTO struct {
	Key           string            `json:"key"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Email         string            `json:"email"`
	MobileNumber  string            `json:"mobile_number"`
	NationalID    string            `json:"national_id"`
	Governorate   string            `json:"governorate,omitempty"`
	Area          string            `json:"area,omitempty"`
	Address       string            `json:"address,omitempty"`
	ImageURL      string            `json:"image_url,omitempty"`
	IsBlackListed bool              `json:"is_black_listed"`
	IsActive      bool              `json:"is_active"`
	Subscriptions []SubscriptionDTO `json:"subscriptions"`
	CreatedOn     time.Time         `json:"created_on"`
}

// SubscriberStatsDTO holds dashboard totals.
type SubscriberStatsDTO struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Blacklisted int64 `json:"blacklisted"`
}

// SubscriberService orchestrates the subscriber lifecycle: creation with an
// initial subscription, renewal, search and blacklist management.
type SubscriberService struct {
	repo       subDomain.Repository
	protector  *token.Protector
	dispatcher notify.Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

// NewSubscriberService creates a new SubscriberService. now is injectable for
// tests; pass time.Now in production.
func NewSubscriberService(
	repo subDomain.Repository,
	protector *token.Protector,
	dispatcher notify.Dispatcher,
	now func() time.Time,
	logger *zap.Logger,
) *SubscriberService {
	return &SubscriberService{
		repo:       repo,
		protector:  protector,
		dispatcher: dispatcher,
		now:        now,
		logger:     logger,
	}
}

// Create validates the form, enforces uniqueness of the contact fields,
// persists the subscriber with its initial one-year subscription atomically
// and queues a welcome notification. The notification outcome never fails the
// creation.
func (s *SubscriberService) Create(ctx context.Context, createdBy string, form SubscriberForm) (*SubscriberDTO, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	if field, taken, err := s.repo.FindDuplicateField(ctx, form.profile(), 0); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.NewDuplicateFieldError(string(field))
	}

	now := s.now().UTC()
	sub := subDomain.NewSubscriber(form.profile(), createdBy, now, now)
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscriber created",
		zap.Uint64("subscriber_id", sub.ID()),
		zap.String("created_by", createdBy),
	)

	s.enqueue(ctx, notify.WelcomeNotification(sub.Email(), sub.FirstName(), sub.LastName()))

	dto := s.toDTO(sub)
	return &dto, nil
}

// Renew resolves the opaque subscriber reference and appends the next
// subscription period. Blacklisted subscribers are categorically refused. A
// renewal is successful once persisted, regardless of notification outcome.
func (s *SubscriberService) Renew(ctx context.Context, renewedBy, key string) (*SubscriptionDTO, error) {
	id, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	newSub, err := s.repo.Renew(ctx, id, renewedBy, now, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription renewed",
		zap.Uint64("subscriber_id", id),
		zap.String("end_date", newSub.EndDate.Format("2006-01-02")),
	)

	// Reload for the notification address; a failure here only skips the
	// notification, the renewal already stands.
	if sub, err := s.repo.FindByID(ctx, id); err == nil {
		s.enqueue(ctx, notify.RenewalNotification(
			sub.Email(),
			sub.FirstName(),
			newSub.EndDate.Format(notify.EndDateFormat),
		))
	} else {
		s.logger.Warn("skipping renewal notification", zap.Error(err))
	}

	dto := toSubscriptionDTO(newSub)
	return &dto, nil
}

// Get returns the subscriber behind an opaque reference.
func (s *SubscriberService) Get(ctx context.Context, key string) (*SubscriberDTO, error) {
	id, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(sub)
	return &dto, nil
}

// Search matches the value against email, mobile number and national id.
func (s *SubscriberService) Search(ctx context.Context, value string) (*SubscriberDTO, error) {
	for _, field := range []subDomain.UniqueField{
		subDomain.FieldEmail,
		subDomain.FieldMobileNumber,
		subDomain.FieldNationalID,
	} {
		sub, err := s.repo.FindByUniqueField(ctx, field, value)
		if err == nil {
			dto := s.toDTO(sub)
			return &dto, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domain.NewNotFoundError("Subscriber", value)
}

// Update replaces the subscriber's profile, re-checking field uniqueness
// against everyone else.
func (s *SubscriberService) Update(ctx context.Context, updatedBy, key string, form SubscriberForm) (*SubscriberDTO, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	id, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if field, taken, err := s.repo.FindDuplicateField(ctx, form.profile(), id); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.NewDuplicateFieldError(string(field))
	}

	sub.UpdateProfile(form.profile(), updatedBy, s.now().UTC())
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}

	dto := s.toDTO(sub)
	return &dto, nil
}

// ToggleBlacklist flips the blacklist flag and returns the new value.
func (s *SubscriberService) ToggleBlacklist(ctx context.Context, updatedBy, key string) (bool, error) {
	id, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	blacklisted := sub.ToggleBlacklist(updatedBy, s.now().UTC())
	if err := s.repo.Update(ctx, sub); err != nil {
		return false, err
	}

	s.logger.Info("subscriber blacklist toggled",
		zap.Uint64("subscriber_id", id),
		zap.Bool("is_black_listed", blacklisted),
	)
	return blacklisted, nil
}

// List returns a page of subscribers (admin).
func (s *SubscriberService) List(ctx context.Context, page, limit int) ([]SubscriberDTO, int64, error) {
	subs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]SubscriberDTO, len(subs))
	for i, sub := range subs {
		dtos[i] = s.toDTO(sub)
	}
	return dtos, total, nil
}

// Stats returns dashboard totals (admin).
func (s *SubscriberService) Stats(ctx context.Context) (*SubscriberStatsDTO, error) {
	total, blacklisted, active, err := s.repo.CountByStatus(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return &SubscriberStatsDTO{Total: total, Active: active, Blacklisted: blacklisted}, nil
}

// resolve turns an opaque reference into an internal id. Token failures are
// reported as NotFound so a caller cannot distinguish a tampered token from a
// missing record.
func (s *SubscriberService) resolve(key string) (uint64, error) {
	id, err := s.protector.Unprotect(key)
	if err != nil {
		return 0, domain.NewNotFoundError("Subscriber", key)
	}
	return id, nil
}

// enqueue hands a notification to the dispatcher, logging failures without
// surfacing them.
func (s *SubscriberService) enqueue(ctx context.Context, n notify.Notification) {
	if err := s.dispatcher.Enqueue(ctx, n); err != nil {
		s.logger.Error("failed to enqueue notification",
			zap.String("destination", n.Destination),
			zap.Error(err),
		)
	}
}

func (s *SubscriberService) toDTO(sub *subDomain.Subscriber) SubscriberDTO {
	periods := sub.Subscriptions()
	dtos := make([]SubscriptionDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toSubscriptionDTO(p)
	}

	return SubscriberDTO{
		Key:           s.protector.Protect(sub.ID()),
		FirstName:     sub.FirstName(),
		LastName:      sub.LastName(),
		Email:         sub.Email(),
		MobileNumber:  sub.MobileNumber(),
		NationalID:    sub.NationalID(),
		Governorate:   sub.Governorate(),
		Area:          sub.Area(),
		Address:       sub.Address(),
		ImageURL:      sub.ImageURL(),
		IsBlackListed: sub.IsBlackListed(),
		IsActive:      sub.IsActive(s.now().UTC()),
		Subscriptions: dtos,
		CreatedOn:     sub.CreatedOn(),
	}
}

func toSubscriptionDTO(p subDomain.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		StartDate: p.StartDate.Format("2006-01-02"),
		EndDate:   p.EndDate.Format("2006-01-02"),
		CreatedOn: p.CreatedOn,
	}
}
