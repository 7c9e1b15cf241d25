package mock

import (
	"context"
	"time"

	"github.com/fwojciec/uidex"
)

var _ uidex.SourceService = (*SourceService)(nil)

// SourceService is a mock implementation of uidex.SourceService.
type SourceService struct {
	CreateSourceFn     func(ctx context.Context, source *uidex.Source) error
	FindSourceBySlugFn func(ctx context.Context, slug string) (*uidex.Source, error)
	FindSourcesFn      func(ctx context.Context, filter uidex.SourceFilter) ([]*uidex.Source, error)
	BeginCrawlFn       func(ctx context.Context, id string) error
	FinishCrawlFn      func(ctx context.Context, id string, status string, finishedAt time.Time) error
}

func (s *SourceService) CreateSource(ctx context.Context, source *uidex.Source) error {
	return s.CreateSourceFn(ctx, source)
}

func (s *SourceService) FindSourceBySlug(ctx context.Context, slug string) (*uidex.Source, error) {
	return s.FindSourceBySlugFn(ctx, slug)
}

func (s *SourceService) FindSources(ctx context.Context, filter uidex.SourceFilter) ([]*uidex.Source, error) {
	return s.FindSourcesFn(ctx, filter)
}

func (s *SourceService) BeginCrawl(ctx context.Context, id string) error {
	return s.BeginCrawlFn(ctx, id)
}

func (s *SourceService) FinishCrawl(ctx context.Context, id string, status string, finishedAt time.Time) error {
	return s.FinishCrawlFn(ctx, id, status, finishedAt)
}
