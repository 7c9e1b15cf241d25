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
var _ uidex.SourceService = (*SourceService)(nil)

// SourceService implements uidex.SourceService using SQLite.
type SourceService struct {
	db *DB
}

// NewSourceService creates a new SourceService.
func NewSourceService(db *DB) *SourceService {
	return &SourceService{db: db}
}

const sourceColumns = "id, slug, name, base_url, crawl_interval_seconds, crawl_status, last_crawled_at, created_at, updated_at"

// CreateSource registers a new source.
func (s *SourceService) CreateSource(ctx context.Context, source *uidex.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}

	source.ID = uuid.New().String()
	if source.CrawlStatus == "" {
		source.CrawlStatus = uidex.CrawlStatusPending
	}
	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, slug, name, base_url, crawl_interval_seconds, crawl_status, last_crawled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, source.ID, source.Slug, source.Name, source.BaseURL, int64(source.CrawlInterval.Seconds()),
		source.CrawlStatus, formatTime(source.LastCrawledAt), formatTime(source.CreatedAt), formatTime(source.UpdatedAt))

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return uidex.Errorf(uidex.ECONFLICT, "source %q already exists", source.Slug)
	}
	return err
}

// FindSourceBySlug retrieves a source by its slug.
func (s *SourceService) FindSourceBySlug(ctx context.Context, slug string) (*uidex.Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE slug = ?
	`, slug)

	source, err := scanSource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, uidex.Errorf(uidex.ENOTFOUND, "source %q not found", slug)
	}
	return source, err
}

// FindSources retrieves sources matching the filter.
func (s *SourceService) FindSources(ctx context.Context, filter uidex.SourceFilter) ([]*uidex.Source, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + sourceColumns + " FROM sources WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Slug != nil {
		query.WriteString(" AND slug = ?")
		args = append(args, *filter.Slug)
	}

	query.WriteString(" ORDER BY slug ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*uidex.Source
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// BeginCrawl atomically flips the source's crawl status to running.
// The WHERE clause is the compare-and-set: it only matches when no crawl
// is currently running, so exclusivity holds across processes.
func (s *SourceService) BeginCrawl(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sources
		SET crawl_status = ?, updated_at = ?
		WHERE id = ? AND crawl_status != ?
	`, uidex.CrawlStatusRunning, formatTime(time.Now().UTC()), id, uidex.CrawlStatusRunning)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Lost the CAS or the source doesn't exist; disambiguate.
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE id = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return uidex.Errorf(uidex.ENOTFOUND, "source not found")
	}
	return uidex.Errorf(uidex.ECONFLICT, "a crawl is already running for this source")
}

// FinishCrawl records the terminal status of a crawl run. LastCrawledAt is
// only stamped on success so the cadence clock measures successful crawls.
func (s *SourceService) FinishCrawl(ctx context.Context, id string, status string, finishedAt time.Time) error {
	var query strings.Builder
	var args []any

	query.WriteString("UPDATE sources SET crawl_status = ?, updated_at = ?")
	args = append(args, status, formatTime(finishedAt))

	if status == uidex.CrawlStatusSuccess {
		query.WriteString(", last_crawled_at = ?")
		args = append(args, formatTime(finishedAt))
	}

	query.WriteString(" WHERE id = ?")
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query.String(), args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return uidex.Errorf(uidex.ENOTFOUND, "source not found")
	}
	return nil
}

// scanSource scans one source row using the provided scan function.
func scanSource(scan func(dest ...any) error) (*uidex.Source, error) {
	var source uidex.Source
	var intervalSeconds int64
	var lastCrawledAt, createdAt, updatedAt string

	if err := scan(&source.ID, &source.Slug, &source.Name, &source.BaseURL, &intervalSeconds,
		&source.CrawlStatus, &lastCrawledAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	source.CrawlInterval = time.Duration(intervalSeconds) * time.Second

	var err error
	if source.LastCrawledAt, err = parseTime(lastCrawledAt, "last_crawled_at"); err != nil {
		return nil, err
	}
	if source.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if source.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	return &source, nil
}
