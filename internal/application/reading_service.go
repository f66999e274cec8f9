package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	readingDomain "github.com/gazify-app/service-membership/internal/domain/reading"
)

// ReadingRequest holds an incoming sensor measurement. Location may be
// omitted; Value of zero on update means "keep the stored value".
type ReadingRequest struct {
	Value    int     `json:"read"`
	Location *string `json:"location"`
}

// ReadingDTO is the API representation of a sensor reading.
type ReadingDTO struct {
	ID            string     `json:"id"`
	Value         int        `json:"read"`
	Location      string     `json:"location"`
	IsDeleted     bool       `json:"is_deleted"`
	CreatedOn     time.Time  `json:"created_on"`
	LastUpdatedOn *time.Time `json:"last_updated_on,omitempty"`
}

// ReadingService handles gas sensor ingestion use cases. The endpoint is
// stateless CRUD over reading records; there is no lifecycle logic here.
type ReadingService struct {
	repo   readingDomain.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewReadingService creates a new ReadingService.
func NewReadingService(repo readingDomain.Repository, now func() time.Time, logger *zap.Logger) *ReadingService {
	return &ReadingService{repo: repo, now: now, logger: logger}
}

// ListAll returns every recorded reading.
func (s *ReadingService) ListAll(ctx context.Context) ([]ReadingDTO, error) {
	readings, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReadingDTO, len(readings))
	for i, r := range readings {
		dtos[i] = toReadingDTO(r)
	}
	return dtos, nil
}

// Last returns the most recent reading.
func (s *ReadingService) Last(ctx context.Context) (*ReadingDTO, error) {
	r, err := s.repo.Last(ctx)
	if err != nil {
		return nil, err
	}
	dto := toReadingDTO(r)
	return &dto, nil
}

// Record stores a new reading pushed by the sensor.
func (s *ReadingService) Record(ctx context.Context, req ReadingRequest) (*ReadingDTO, error) {
	location := ""
	if req.Location != nil {
		location = *req.Location
	}

	r := readingDomain.NewReading(req.Value, location, readingDomain.SensorIdentity, s.now().UTC())
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("sensor reading recorded",
		zap.String("reading_id", r.ID().String()),
		zap.Int("value", r.Value()),
	)
	dto := toReadingDTO(r)
	return &dto, nil
}

// AmendLast applies a partial update to the most recent reading.
func (s *ReadingService) AmendLast(ctx context.Context, req ReadingRequest) (*ReadingDTO, error) {
	r, err := s.repo.Last(ctx)
	if err != nil {
		return nil, err
	}

	r.Amend(req.Value, req.Location, readingDomain.SensorIdentity, s.now().UTC())
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	dto := toReadingDTO(r)
	return &dto, nil
}

// ToggleStatus flips a reading's soft-delete flag.
func (s *ReadingService) ToggleStatus(ctx context.Context, id string) (*ReadingDTO, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	r, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	r.ToggleStatus(readingDomain.SensorIdentity, s.now().UTC())
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	dto := toReadingDTO(r)
	return &dto, nil
}

func toReadingDTO(r *readingDomain.Reading) ReadingDTO {
	return ReadingDTO{
		ID:            r.ID().String(),
		Value:         r.Value(),
		Location:      r.Location(),
		IsDeleted:     r.IsDeleted(),
		CreatedOn:     r.CreatedOn(),
		LastUpdatedOn: r.LastUpdatedOn(),
	}
}
