package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gazify-app/service-membership/internal/domain"
	subDomain "github.com/gazify-app/service-membership/internal/domain/subscriber"
)

// SubscriberModel is the GORM model for the subscribers table.
type SubscriberModel struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	FirstName       string     `gorm:"type:varchar(100);not null"`
	LastName        string     `gorm:"type:varchar(100);not null"`
	Email           string     `gorm:"type:varchar(200);uniqueIndex;not null"`
	MobileNumber    string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	NationalID      string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	Governorate     string     `gorm:"type:varchar(100)"`
	Area            string     `gorm:"type:varchar(100)"`
	Address         string     `gorm:"type:varchar(500)"`
	ImageURL        string     `gorm:"type:varchar(500)"`
	ImageThumbURL   string     `gorm:"type:varchar(500)"`
	IsBlackListed   bool       `gorm:"not null;default:false"`
	CreatedByID     string     `gorm:"type:varchar(100);not null"`
	CreatedOn       time.Time  `gorm:"type:timestamptz;not null"`
	LastUpdatedByID string     `gorm:"type:varchar(100)"`
	LastUpdatedOn   *time.Time `gorm:"type:timestamptz"`
	Version         int64      `gorm:"not null;default:1"`

	Subscriptions []SubscriptionModel `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name.
func (SubscriberModel) TableName() string { return "subscribers" }

// SubscriptionModel is the GORM model for the subscriptions table.
type SubscriptionModel struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	SubscriberID uint64    `gorm:"not null;index"`
	StartDate    time.Time `gorm:"type:date;not null"`
	EndDate      time.Time `gorm:"type:date;not null;index"`
	CreatedByID  string    `gorm:"type:varchar(100);not null"`
	CreatedOn    time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (SubscriptionModel) TableName() string { return "subscriptions" }

// GormSubscriberRepository implements subscriber.Repository using GORM.
type GormSubscriberRepository struct {
	db *gorm.DB
}

// NewGormSubscriberRepository creates a new GormSubscriberRepository.
func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// FindByID retrieves a subscriber with its subscription history.
func (r *GormSubscriberRepository) FindByID(ctx context.Context, id uint64) (*subDomain.Subscriber, error) {
	var model SubscriberModel
	if err := r.db.WithContext(ctx).Preload("Subscriptions").First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Subscriber", strconv.FormatUint(id, 10))
		}
		return nil, err
	}
	return toSubscriberDomain(&model), nil
}

// FindByUniqueField retrieves a subscriber by one of the globally unique
// contact fields. Email comparison is case-insensitive; emails are stored
// lowercased and the lookup lowercases the probe to match.
func (r *GormSubscriberRepository) FindByUniqueField(ctx context.Context, field subDomain.UniqueField, value string) (*subDomain.Subscriber, error) {
	query := r.db.WithContext(ctx).Preload("Subscriptions")

	switch field {
	case subDomain.FieldEmail:
		query = query.Where("email = ?", strings.ToLower(strings.TrimSpace(value)))
	case subDomain.FieldMobileNumber:
		query = query.Where("mobile_number = ?", strings.TrimSpace(value))
	case subDomain.FieldNationalID:
		query = query.Where("national_id = ?", strings.TrimSpace(value))
	default:
		return nil, domain.NewNotFoundError("Subscriber", value)
	}

	var model SubscriberModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Subscriber", value)
		}
		return nil, err
	}
	return toSubscriberDomain(&model), nil
}

// FindDuplicateField reports the first unique field already taken by another
// subscriber.
func (r *GormSubscriberRepository) FindDuplicateField(ctx context.Context, p subDomain.Profile, excludeID uint64) (subDomain.UniqueField, bool, error) {
	checks := []struct {
		field  subDomain.UniqueField
		column string
		value  string
	}{
		{subDomain.FieldEmail, "email", strings.ToLower(strings.TrimSpace(p.Email))},
		{subDomain.FieldMobileNumber, "mobile_number", strings.TrimSpace(p.MobileNumber)},
		{subDomain.FieldNationalID, "national_id", strings.TrimSpace(p.NationalID)},
	}

	for _, check := range checks {
		var count int64
		q := r.db.WithContext(ctx).Model(&SubscriberModel{}).Where(check.column+" = ?", check.value)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", false, err
		}
		if count > 0 {
			return check.field, true, nil
		}
	}
	return "", false, nil
}

// Create persists the subscriber and its initial subscription in one
// transaction; the association insert keeps the two from existing
// independently.
func (r *GormSubscriberRepository) Create(ctx context.Context, s *subDomain.Subscriber) error {
	model := toSubscriberModel(s)
	for _, sub := range s.Subscriptions() {
		model.Subscriptions = append(model.Subscriptions, SubscriptionModel{
			StartDate:   sub.StartDate,
			EndDate:     sub.EndDate,
			CreatedByID: sub.CreatedByID,
			CreatedOn:   sub.CreatedOn,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return err
	}

	// GORM backfills generated ids on the model; rebuild the aggregate so the
	// caller sees them.
	*s = *toSubscriberDomain(&model)
	return nil
}

// Update persists profile or blacklist changes with an optimistic version
// check.
func (r *GormSubscriberRepository) Update(ctx context.Context, s *subDomain.Subscriber) error {
	model := toSubscriberModel(s)
	previousVersion := s.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&SubscriberModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").Omit("id", "created_by_id", "created_on").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("subscriber was modified by another transaction")
	}
	return nil
}

// Renew appends the next subscription period under SELECT ... FOR UPDATE on
// the subscriber row. Concurrent renewals of the same subscriber queue behind
// the lock and each sees the period the previous one inserted.
func (r *GormSubscriberRepository) Renew(ctx context.Context, subscriberID uint64, renewedBy string, now, today time.Time) (subDomain.Subscription, error) {
	var newSub subDomain.Subscription

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model SubscriberModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, subscriberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Subscriber", strconv.FormatUint(subscriberID, 10))
			}
			return err
		}
		if err := tx.Where("subscriber_id = ?", subscriberID).
			Find(&model.Subscriptions).Error; err != nil {
			return err
		}

		agg := toSubscriberDomain(&model)
		sub, err := agg.Renew(renewedBy, now, today)
		if err != nil {
			return err
		}

		row := SubscriptionModel{
			SubscriberID: subscriberID,
			StartDate:    sub.StartDate,
			EndDate:      sub.EndDate,
			CreatedByID:  sub.CreatedByID,
			CreatedOn:    sub.CreatedOn,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if err := tx.Model(&SubscriberModel{}).
			Where("id = ?", subscriberID).
			Updates(map[string]interface{}{
				"last_updated_by_id": renewedBy,
				"last_updated_on":    now,
				"version":            gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}

		sub.ID = row.ID
		newSub = sub
		return nil
	})
	if err != nil {
		return subDomain.Subscription{}, err
	}
	return newSub, nil
}

// ListExpiring returns non-blacklisted subscribers whose latest subscription
// ends exactly on endDate.
func (r *GormSubscriberRepository) ListExpiring(ctx context.Context, endDate time.Time) ([]*subDomain.Subscriber, error) {
	latest := r.db.Model(&SubscriptionModel{}).
		Select("subscriber_id, MAX(end_date) AS max_end").
		Group("subscriber_id")

	var models []SubscriberModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN (?) latest ON latest.subscriber_id = subscribers.id", latest).
		Where("subscribers.is_black_listed = ?", false).
		Where("latest.max_end = ?", subDomain.Date(endDate)).
		Preload("Subscriptions").
		Find(&models).Error; err != nil {
		return nil, err
	}

	subscribers := make([]*subDomain.Subscriber, len(models))
	for i := range models {
		subscribers[i] = toSubscriberDomain(&models[i])
	}
	return subscribers, nil
}

// List returns a page of subscribers ordered by creation time.
func (r *GormSubscriberRepository) List(ctx context.Context, page, limit int) ([]*subDomain.Subscriber, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&SubscriberModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []SubscriberModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Preload("Subscriptions").
		Order("created_on DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	subscribers := make([]*subDomain.Subscriber, len(models))
	for i := range models {
		subscribers[i] = toSubscriberDomain(&models[i])
	}
	return subscribers, total, nil
}

// CountByStatus returns dashboard totals.
func (r *GormSubscriberRepository) CountByStatus(ctx context.Context, today time.Time) (total, blacklisted, active int64, err error) {
	if err = r.db.WithContext(ctx).Model(&SubscriberModel{}).Count(&total).Error; err != nil {
		return
	}
	if err = r.db.WithContext(ctx).Model(&SubscriberModel{}).
		Where("is_black_listed = ?", true).Count(&blacklisted).Error; err != nil {
		return
	}

	latest := r.db.Model(&SubscriptionModel{}).
		Select("subscriber_id, MAX(end_date) AS max_end").
		Group("subscriber_id")
	err = r.db.WithContext(ctx).Model(&SubscriberModel{}).
		Joins("JOIN (?) latest ON latest.subscriber_id = subscribers.id", latest).
		Where("latest.max_end >= ?", subDomain.Date(today)).
		Count(&active).Error
	return
}

func toSubscriberModel(s *subDomain.Subscriber) SubscriberModel {
	return SubscriberModel{
		ID:              s.ID(),
		FirstName:       s.FirstName(),
		LastName:        s.LastName(),
		Email:           s.Email(),
		MobileNumber:    s.MobileNumber(),
		NationalID:      s.NationalID(),
		Governorate:     s.Governorate(),
		Area:            s.Area(),
		Address:         s.Address(),
		ImageURL:        s.ImageURL(),
		ImageThumbURL:   s.ImageThumbURL(),
		IsBlackListed:   s.IsBlackListed(),
		CreatedByID:     s.CreatedByID(),
		CreatedOn:       s.CreatedOn(),
		LastUpdatedByID: s.LastUpdatedByID(),
		LastUpdatedOn:   s.LastUpdatedOn(),
		Version:         s.Version(),
	}
}

func toSubscriberDomain(m *SubscriberModel) *subDomain.Subscriber {
	subs := make([]subDomain.Subscription, len(m.Subscriptions))
	for i, s := range m.Subscriptions {
		subs[i] = subDomain.Subscription{
			ID:          s.ID,
			StartDate:   subDomain.Date(s.StartDate),
			EndDate:     subDomain.Date(s.EndDate),
			CreatedByID: s.CreatedByID,
			CreatedOn:   s.CreatedOn,
		}
	}

	return subDomain.Reconstitute(
		m.ID,
		subDomain.Profile{
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			Email:         m.Email,
			MobileNumber:  m.MobileNumber,
			NationalID:    m.NationalID,
			Governorate:   m.Governorate,
			Area:          m.Area,
			Address:       m.Address,
			ImageURL:      m.ImageURL,
			ImageThumbURL: m.ImageThumbURL,
		},
		m.IsBlackListed,
		subs,
		m.CreatedByID, m.CreatedOn,
		m.LastUpdatedByID, m.LastUpdatedOn,
		m.Version,
	)
}
