// Package reading models gas sensor readings ingested by the anonymous
// sensor endpoint.
package reading

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLocation is stamped on readings that arrive without one.
const DefaultLocation = "Madinaty 234"

// SensorIdentity is the recorded author for readings pushed by the sensor
// itself rather than an operator.
const SensorIdentity = "gas-sensor"

// Reading is a single gas sensor measurement.
type Reading struct {
	id              uuid.UUID
	value           int
	location        string
	isDeleted       bool
	createdByID     string
	createdOn       time.Time
	lastUpdatedByID string
	lastUpdatedOn   *time.Time
}

// NewReading creates a reading, defaulting the location when empty.
func NewReading(value int, location, createdBy string, now time.Time) *Reading {
	if location == "" {
		location = DefaultLocation
	}
	return &Reading{
		id:          uuid.New(),
		value:       value,
		location:    location,
		createdByID: createdBy,
		createdOn:   now,
	}
}

// Reconstitute rebuilds a Reading from persistence.
func Reconstitute(id uuid.UUID, value int, location string, isDeleted bool,
	createdByID string, createdOn time.Time,
	lastUpdatedByID string, lastUpdatedOn *time.Time) *Reading {
	return &Reading{
		id: id, value: value, location: location, isDeleted: isDeleted,
		createdByID: createdByID, createdOn: createdOn,
		lastUpdatedByID: lastUpdatedByID, lastUpdatedOn: lastUpdatedOn,
	}
}

func (r *Reading) ID() uuid.UUID             { return r.id }
func (r *Reading) Value() int                { return r.value }
func (r *Reading) Location() string          { return r.location }
func (r *Reading) IsDeleted() bool           { return r.isDeleted }
func (r *Reading) CreatedByID() string       { return r.createdByID }
func (r *Reading) CreatedOn() time.Time      { return r.createdOn }
func (r *Reading) LastUpdatedByID() string   { return r.lastUpdatedByID }
func (r *Reading) LastUpdatedOn() *time.Time { return r.lastUpdatedOn }

// Amend applies a partial update: a non-positive value keeps the stored one,
// a nil location keeps the stored one.
func (r *Reading) Amend(value int, location *string, updatedBy string, now time.Time) {
	if value > 0 {
		r.value = value
	}
	if location != nil {
		r.location = *location
	}
	r.lastUpdatedByID = updatedBy
	r.lastUpdatedOn = &now
}

// ToggleStatus flips the soft-delete flag.
func (r *Reading) ToggleStatus(updatedBy string, now time.Time) {
	r.isDeleted = !r.isDeleted
	r.lastUpdatedByID = updatedBy
	r.lastUpdatedOn = &now
}
