package uidex

import (
	"context"
	"time"
)

// Component is the canonical catalog entity for one UI component.
// Identity is the (SourceID, Slug) pair; at most one active component
// exists per pair. Mutated only by the merge engine.
type Component struct {
	ID           string    `json:"id"`
	SourceID     string    `json:"sourceId"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Code         string    `json:"code"`
	SourceURL    string    `json:"sourceUrl"`
	Dependencies []string  `json:"dependencies"`
	Variants     []string  `json:"variants"`
	Fingerprint  string    `json:"fingerprint"` // sha256 hex of normalized content
	IsActive     bool      `json:"isActive"`
	Views        int       `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}

// Validate returns an error if the component contains invalid fields.
func (c *Component) Validate() error {
	if c.SourceID == "" {
		return Errorf(EINVALID, "component source ID required")
	}
	if c.Slug == "" {
		return Errorf(EINVALID, "component slug required")
	}
	if c.Name == "" {
		return Errorf(EINVALID, "component name required")
	}
	return nil
}

// ComponentSort represents the sort order for component queries.
type ComponentSort string

// ComponentSort constants for ComponentFilter.
const (
	SortByName      ComponentSort = "name"
	SortByViews     ComponentSort = "views"
	SortByUpdatedAt ComponentSort = "updated_at"
)

// ComponentFilter represents a filter for FindComponents.
// IncludeInactive widens the result to soft-removed rows; browse and
// search surfaces leave it false.
type ComponentFilter struct {
	ID              *string `json:"id"`
	SourceID        *string `json:"sourceId"`
	Slug            *string `json:"slug"`
	Tag             *string `json:"tag"`
	IncludeInactive bool    `json:"includeInactive"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`

	SortBy ComponentSort `json:"sortBy"`
}

// ComponentService represents the catalog storage surface the core needs:
// upsert by unique key, batch soft removal, and reads.
type ComponentService interface {
	// UpsertComponent inserts the component or, when a row with the same
	// (SourceID, Slug) exists, replaces its content fields in place. The
	// existing row's ID, Views and CreatedAt are preserved on update.
	UpsertComponent(ctx context.Context, component *Component) error

	// TouchComponents bumps LastSeenAt for the given slugs of a source.
	TouchComponents(ctx context.Context, sourceID string, slugs []string, seenAt time.Time) error

	// DeactivateMissing marks active components of the source whose slug
	// is not in seenSlugs as inactive. Returns the number of rows changed.
	DeactivateMissing(ctx context.Context, sourceID string, seenSlugs []string) (int, error)

	// FindComponentByID retrieves a component by ID.
	// Returns ENOTFOUND if the component does not exist.
	FindComponentByID(ctx context.Context, id string) (*Component, error)

	// FindComponents retrieves components matching the filter.
	FindComponents(ctx context.Context, filter ComponentFilter) ([]*Component, int, error)

	// IncrementViews bumps the view counter by one.
	IncrementViews(ctx context.Context, id string) error
}
