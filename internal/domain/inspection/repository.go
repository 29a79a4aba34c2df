package inspection

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Fields is a set of partial updates keyed by dotted path, e.g.
// "interior.tires.value" or a top-level field like "status". Paths into
// different items apply independently so two inspectors editing
// different items never clobber each other; writes to the same path are
// last-write-wins with no merge.
type Fields map[string]interface{}

// Repository defines the interface for the inspection document store
type Repository interface {
	Create(ctx context.Context, insp *Inspection) error
	GetByID(ctx context.Context, id uuid.UUID) (*Inspection, error)

	// FindInProgressByTruck returns the single in-progress inspection
	// for a truck number, or nil when there is none. Uniqueness of the
	// in-progress inspection per truck is a query-enforced policy, not
	// a schema constraint.
	FindInProgressByTruck(ctx context.Context, truckNumber string) (*Inspection, error)

	List(ctx context.Context, filter *Filter) ([]*Inspection, int64, error)

	// UpdateFields applies dotted-path partial updates and stamps
	// updatedAt. It does not check the inspection's status: terminal-
	// state protection is a controller policy, not a store invariant.
	UpdateFields(ctx context.Context, id uuid.UUID, fields Fields) error

	AppendDefectPhoto(ctx context.Context, id uuid.UUID, photo DefectPhoto) error
	RemoveDefectPhoto(ctx context.Context, id uuid.UUID, url string) error
}

// Filter represents filtering options for listing inspections
type Filter struct {
	Status      *Status
	TruckNumber *string
	// Inspector matches either inspector1 or inspector2
	Inspector *string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// Pagination; results are ordered by createdAt descending
	Page     int
	PageSize int
}
