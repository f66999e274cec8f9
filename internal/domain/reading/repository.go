package reading

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for sensor readings.
type Repository interface {
	ListAll(ctx context.Context) ([]*Reading, error)
	Last(ctx context.Context) (*Reading, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Reading, error)
	Save(ctx context.Context, r *Reading) error
	Update(ctx context.Context, r *Reading) error
}
