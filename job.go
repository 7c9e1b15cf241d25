package uidex

import (
	"context"
	"time"
)

// Crawl job status values. Persisted as-is; do not reorder or rename.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusSuccess   = "success"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobTerminal reports whether status is a terminal job status.
func JobTerminal(status string) bool {
	switch status {
	case JobStatusSuccess, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CrawlJob represents one orchestration run for a single source.
// Terminal jobs are immutable; the store rejects further updates.
type CrawlJob struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"sourceId"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`

	// Per-item outcome counters, accumulated as the run progresses.
	Found   int `json:"found"`
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`

	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// CrawlJobUpdate represents fields that can be updated on a running job.
type CrawlJobUpdate struct {
	Status  *string `json:"status"`
	Found   *int    `json:"found"`
	Added   *int    `json:"added"`
	Updated *int    `json:"updated"`
	Removed *int    `json:"removed"`
	Skipped *int    `json:"skipped"`

	ErrorCode    *string    `json:"errorCode"`
	ErrorMessage *string    `json:"errorMessage"`
	EndedAt      *time.Time `json:"endedAt"`
}

// CrawlJobFilter represents a filter for FindCrawlJobs.
type CrawlJobFilter struct {
	SourceID *string `json:"sourceId"`
	Status   *string `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// CrawlJobService represents a service for managing crawl job records.
type CrawlJobService interface {
	// CreateCrawlJob creates a new job record in pending status.
	CreateCrawlJob(ctx context.Context, job *CrawlJob) error

	// FindCrawlJobByID retrieves a job by ID.
	// Returns ENOTFOUND if the job does not exist.
	FindCrawlJobByID(ctx context.Context, id string) (*CrawlJob, error)

	// FindCrawlJobs retrieves jobs matching the filter, newest first.
	FindCrawlJobs(ctx context.Context, filter CrawlJobFilter) ([]*CrawlJob, error)

	// UpdateCrawlJob applies upd to the job.
	// Returns ECONFLICT if the job is already terminal.
	UpdateCrawlJob(ctx context.Context, id string, upd CrawlJobUpdate) (*CrawlJob, error)
}
