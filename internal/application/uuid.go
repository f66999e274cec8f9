package application

import (
	"github.com/google/uuid"

	"github.com/gazify-app/service-membership/internal/domain"
)

// parseUUID maps a malformed id to NotFound so the sensor API never leaks
// whether an id was invalid or merely absent.
func parseUUID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.NewNotFoundError("Reading", id)
	}
	return uid, nil
}
