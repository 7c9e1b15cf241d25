package mock

import (
	"context"

	"github.com/fwojciec/uidex"
)

var _ uidex.CrawlJobService = (*CrawlJobService)(nil)

// CrawlJobService is a mock implementation of uidex.CrawlJobService.
type CrawlJobService struct {
	CreateCrawlJobFn   func(ctx context.Context, job *uidex.CrawlJob) error
	FindCrawlJobByIDFn func(ctx context.Context, id string) (*uidex.CrawlJob, error)
	FindCrawlJobsFn    func(ctx context.Context, filter uidex.CrawlJobFilter) ([]*uidex.CrawlJob, error)
	UpdateCrawlJobFn   func(ctx context.Context, id string, upd uidex.CrawlJobUpdate) (*uidex.CrawlJob, error)
}

func (s *CrawlJobService) CreateCrawlJob(ctx context.Context, job *uidex.CrawlJob) error {
	return s.CreateCrawlJobFn(ctx, job)
}

func (s *CrawlJobService) FindCrawlJobByID(ctx context.Context, id string) (*uidex.CrawlJob, error) {
	return s.FindCrawlJobByIDFn(ctx, id)
}

func (s *CrawlJobService) FindCrawlJobs(ctx context.Context, filter uidex.CrawlJobFilter) ([]*uidex.CrawlJob, error) {
	return s.FindCrawlJobsFn(ctx, filter)
}

func (s *CrawlJobService) UpdateCrawlJob(ctx context.Context, id string, upd uidex.CrawlJobUpdate) (*uidex.CrawlJob, error) {
	return s.UpdateCrawlJobFn(ctx, id, upd)
}
