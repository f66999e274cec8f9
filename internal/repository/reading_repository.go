package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gazify-app/service-membership/internal/domain"
	readingDomain "github.com/gazify-app/service-membership/internal/domain/reading"
)

// ReadingModel is the GORM model for the gas_readings table.
type ReadingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Value           int        `gorm:"column:read_value;not null"`
	Location        string     `gorm:"type:varchar(500)"`
	IsDeleted       bool       `gorm:"not null;default:false"`
	CreatedByID     string     `gorm:"type:varchar(100);not null"`
	CreatedOn       time.Time  `gorm:"type:timestamptz;not null;index"`
	LastUpdatedByID string     `gorm:"type:varchar(100)"`
	LastUpdatedOn   *time.Time `gorm:"type:timestamptz"`
}

// TableName sets the table name.
func (ReadingModel) TableName() string { return "gas_readings" }

// GormReadingRepository implements reading.Repository using GORM.
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository.
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// ListAll returns every reading, newest first.
func (r *GormReadingRepository) ListAll(ctx context.Context) ([]*readingDomain.Reading, error) {
	var models []ReadingModel
	if err := r.db.WithContext(ctx).Order("created_on DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	readings := make([]*readingDomain.Reading, len(models))
	for i := range models {
		readings[i] = toReadingDomain(&models[i])
	}
	return readings, nil
}

// Last returns the most recently created reading.
func (r *GormReadingRepository) Last(ctx context.Context) (*readingDomain.Reading, error) {
	var model ReadingModel
	if err := r.db.WithContext(ctx).Order("created_on DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reading", "latest")
		}
		return nil, err
	}
	return toReadingDomain(&model), nil
}

// FindByID returns a reading by id.
func (r *GormReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*readingDomain.Reading, error) {
	var model ReadingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reading", id.String())
		}
		return nil, err
	}
	return toReadingDomain(&model), nil
}

// Save persists a new reading.
func (r *GormReadingRepository) Save(ctx context.Context, rd *readingDomain.Reading) error {
	model := toReadingModel(rd)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing reading.
func (r *GormReadingRepository) Update(ctx context.Context, rd *readingDomain.Reading) error {
	model := toReadingModel(rd)
	return r.db.WithContext(ctx).Save(&model).Error
}

func toReadingModel(r *readingDomain.Reading) ReadingModel {
	return ReadingModel{
		ID:              r.ID(),
		Value:           r.Value(),
		Location:        r.Location(),
		IsDeleted:       r.IsDeleted(),
		CreatedByID:     r.CreatedByID(),
		CreatedOn:       r.CreatedOn(),
		LastUpdatedByID: r.LastUpdatedByID(),
		LastUpdatedOn:   r.LastUpdatedOn(),
	}
}

func toReadingDomain(m *ReadingModel) *readingDomain.Reading {
	return readingDomain.Reconstitute(
		m.ID, m.Value, m.Location, m.IsDeleted,
		m.CreatedByID, m.CreatedOn,
		m.LastUpdatedByID, m.LastUpdatedOn,
	)
}
