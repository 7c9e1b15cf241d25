package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/uidex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ uidex.CrawlJobService = (*CrawlJobService)(nil)

// CrawlJobService implements uidex.CrawlJobService using SQLite.
type CrawlJobService struct {
	db *DB
}

// NewCrawlJobService creates a new CrawlJobService.
func NewCrawlJobService(db *DB) *CrawlJobService {
	return &CrawlJobService{db: db}
}

const jobColumns = "id, source_id, status, started_at, ended_at, found, added, updated, removed, skipped, error_code, error_message"

// CreateCrawlJob creates a new job record.
func (s *CrawlJobService) CreateCrawlJob(ctx context.Context, job *uidex.CrawlJob) error {
	if job.SourceID == "" {
		return uidex.Errorf(uidex.EINVALID, "crawl job source ID required")
	}

	job.ID = uuid.New().String()
	if job.Status == "" {
		job.Status = uidex.JobStatusPending
	}
	job.StartedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_jobs (id, source_id, status, started_at, ended_at, found, added, updated, removed, skipped, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.SourceID, job.Status, formatTime(job.StartedAt), formatTime(job.EndedAt),
		job.Found, job.Added, job.Updated, job.Removed, job.Skipped, job.ErrorCode, job.ErrorMessage)

	return err
}

// FindCrawlJobByID retrieves a job by ID.
func (s *CrawlJobService) FindCrawlJobByID(ctx context.Context, id string) (*uidex.CrawlJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM crawl_jobs
		WHERE id = ?
	`, id)

	job, err := scanCrawlJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, uidex.Errorf(uidex.ENOTFOUND, "crawl job not found")
	}
	return job, err
}

// FindCrawlJobs retrieves jobs matching the filter, newest first.
func (s *CrawlJobService) FindCrawlJobs(ctx context.Context, filter uidex.CrawlJobFilter) ([]*uidex.CrawlJob, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + jobColumns + " FROM crawl_jobs WHERE 1=1")

	if filter.SourceID != nil {
		query.WriteString(" AND source_id = ?")
		args = append(args, *filter.SourceID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}

	query.WriteString(" ORDER BY started_at DESC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*uidex.CrawlJob
	for rows.Next() {
		job, err := scanCrawlJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// UpdateCrawlJob applies upd to the job. Jobs in a terminal state are
// immutable: further updates fail with ECONFLICT. The write carries the
// not-terminal condition in its WHERE clause, so the guard holds even when
// two processes race to finish the same job.
func (s *CrawlJobService) UpdateCrawlJob(ctx context.Context, id string, upd uidex.CrawlJobUpdate) (*uidex.CrawlJob, error) {
	job, err := s.FindCrawlJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uidex.JobTerminal(job.Status) {
		return nil, uidex.Errorf(uidex.ECONFLICT, "crawl job is already %s", job.Status)
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Found != nil {
		job.Found = *upd.Found
	}
	if upd.Added != nil {
		job.Added = *upd.Added
	}
	if upd.Updated != nil {
		job.Updated = *upd.Updated
	}
	if upd.Removed != nil {
		job.Removed = *upd.Removed
	}
	if upd.Skipped != nil {
		job.Skipped = *upd.Skipped
	}
	if upd.ErrorCode != nil {
		job.ErrorCode = *upd.ErrorCode
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = *upd.ErrorMessage
	}
	if upd.EndedAt != nil {
		job.EndedAt = *upd.EndedAt
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE crawl_jobs
		SET status = ?, ended_at = ?, found = ?, added = ?, updated = ?, removed = ?, skipped = ?, error_code = ?, error_message = ?
		WHERE id = ? AND status NOT IN (?, ?, ?)
	`, job.Status, formatTime(job.EndedAt), job.Found, job.Added, job.Updated, job.Removed, job.Skipped,
		job.ErrorCode, job.ErrorMessage, id,
		uidex.JobStatusSuccess, uidex.JobStatusFailed, uidex.JobStatusCancelled)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent update won the race and made the job terminal
		// between our read and this write.
		return nil, uidex.Errorf(uidex.ECONFLICT, "crawl job is already terminal")
	}

	return job, nil
}

// scanCrawlJob scans one job row using the provided scan function.
func scanCrawlJob(scan func(dest ...any) error) (*uidex.CrawlJob, error) {
	var job uidex.CrawlJob
	var startedAt, endedAt string

	if err := scan(&job.ID, &job.SourceID, &job.Status, &startedAt, &endedAt,
		&job.Found, &job.Added, &job.Updated, &job.Removed, &job.Skipped,
		&job.ErrorCode, &job.ErrorMessage); err != nil {
		return nil, err
	}

	var err error
	if job.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if job.EndedAt, err = parseTime(endedAt, "ended_at"); err != nil {
		return nil, err
	}

	return &job, nil
}
