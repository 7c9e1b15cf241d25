package uidex

import (
	"context"
	"time"
)

// Source crawl status values. Persisted as-is; do not reorder or rename.
const (
	CrawlStatusPending = "pending"
	CrawlStatusRunning = "running"
	CrawlStatusSuccess = "success"
	CrawlStatusFailed  = "failed"
)

// Source represents one site components are crawled from.
type Source struct {
	ID            string        `json:"id"`
	Slug          string        `json:"slug"`
	Name          string        `json:"name"`
	BaseURL       string        `json:"baseUrl"`
	CrawlInterval time.Duration `json:"crawlInterval"`
	CrawlStatus   string        `json:"crawlStatus"`
	LastCrawledAt time.Time     `json:"lastCrawledAt"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.Slug == "" {
		return Errorf(EINVALID, "source slug required")
	}
	if s.BaseURL == "" {
		return Errorf(EINVALID, "source base URL required")
	}
	return nil
}

// Due reports whether the source should be crawled again at time now.
// A source that has never completed a crawl is always due.
func (s *Source) Due(now time.Time) bool {
	if s.LastCrawledAt.IsZero() {
		return true
	}
	if s.CrawlInterval <= 0 {
		return false
	}
	return now.Sub(s.LastCrawledAt) >= s.CrawlInterval
}

// SourceFilter represents a filter for FindSources.
type SourceFilter struct {
	ID   *string `json:"id"`
	Slug *string `json:"slug"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SourceService represents a service for managing crawl sources.
//
// BeginCrawl is the single-flight guard: it must be implemented as an
// atomic compare-and-set on the stored crawl status so that exclusivity
// holds across multiple orchestrator processes, not just goroutines.
type SourceService interface {
	// CreateSource registers a new source.
	CreateSource(ctx context.Context, source *Source) error

	// FindSourceBySlug retrieves a source by its slug.
	// Returns ENOTFOUND if the source does not exist.
	FindSourceBySlug(ctx context.Context, slug string) (*Source, error)

	// FindSources retrieves sources matching the filter.
	FindSources(ctx context.Context, filter SourceFilter) ([]*Source, error)

	// BeginCrawl atomically flips the source's crawl status to running.
	// Returns ECONFLICT if the source is already running.
	BeginCrawl(ctx context.Context, id string) error

	// FinishCrawl records the terminal status of a crawl run and, on
	// success, stamps LastCrawledAt.
	FinishCrawl(ctx context.Context, id string, status string, finishedAt time.Time) error
}
