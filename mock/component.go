package mock

import (
	"context"
	"time"

	"github.com/fwojciec/uidex"
)

var _ uidex.ComponentService = (*ComponentService)(nil)

// ComponentService is a mock implementation of uidex.ComponentService.
type ComponentService struct {
	UpsertComponentFn   func(ctx context.Context, component *uidex.Component) error
	TouchComponentsFn   func(ctx context.Context, sourceID string, slugs []string, seenAt time.Time) error
	DeactivateMissingFn func(ctx context.Context, sourceID string, seenSlugs []string) (int, error)
	FindComponentByIDFn func(ctx context.Context, id string) (*uidex.Component, error)
	FindComponentsFn    func(ctx context.Context, filter uidex.ComponentFilter) ([]*uidex.Component, int, error)
	IncrementViewsFn    func(ctx context.Context, id string) error
}

func (s *ComponentService) UpsertComponent(ctx context.Context, component *uidex.Component) error {
	return s.UpsertComponentFn(ctx, component)
}

func (s *ComponentService) TouchComponents(ctx context.Context, sourceID string, slugs []string, seenAt time.Time) error {
	return s.TouchComponentsFn(ctx, sourceID, slugs, seenAt)
}

func (s *ComponentService) DeactivateMissing(ctx context.Context, sourceID string, seenSlugs []string) (int, error) {
	return s.DeactivateMissingFn(ctx, sourceID, seenSlugs)
}

func (s *ComponentService) FindComponentByID(ctx context.Context, id string) (*uidex.Component, error) {
	return s.FindComponentByIDFn(ctx, id)
}

func (s *ComponentService) FindComponents(ctx context.Context, filter uidex.ComponentFilter) ([]*uidex.Component, int, error) {
	return s.FindComponentsFn(ctx, filter)
}

func (s *ComponentService) IncrementViews(ctx context.Context, id string) error {
	return s.IncrementViewsFn(ctx, id)
}
