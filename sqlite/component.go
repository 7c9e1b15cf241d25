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
var _ uidex.ComponentService = (*ComponentService)(nil)

// ComponentService implements uidex.ComponentService using SQLite.
type ComponentService struct {
	db *DB
}

// NewComponentService creates a new ComponentService.
func NewComponentService(db *DB) *ComponentService {
	return &ComponentService{db: db}
}

const componentColumns = "id, source_id, slug, name, description, tags, code, source_url, dependencies, variants, fingerprint, is_active, views, created_at, updated_at, last_seen_at"

// UpsertComponent inserts the component or replaces the content fields of
// the existing (source_id, slug) row. The row's id, views and created_at
// survive updates; is_active is always set true, which also reactivates a
// previously soft-removed row that reappears at the source.
func (s *ComponentService) UpsertComponent(ctx context.Context, c *uidex.Component) error {
	if err := c.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if c.LastSeenAt.IsZero() {
		c.LastSeenAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO components (id, source_id, slug, name, description, tags, code, source_url, dependencies, variants, fingerprint, is_active, views, created_at, updated_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(source_id, slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tags = excluded.tags,
			code = excluded.code,
			source_url = excluded.source_url,
			dependencies = excluded.dependencies,
			variants = excluded.variants,
			fingerprint = excluded.fingerprint,
			is_active = 1,
			updated_at = excluded.updated_at,
			last_seen_at = excluded.last_seen_at
	`, uuid.New().String(), c.SourceID, c.Slug, c.Name, c.Description, joinList(c.Tags), c.Code, c.SourceURL,
		joinList(c.Dependencies), joinList(c.Variants), c.Fingerprint, c.Views,
		formatTime(now), formatTime(now), formatTime(c.LastSeenAt))
	if err != nil {
		return err
	}

	// Read back the stored identity so callers see the surviving row.
	var createdAt, updatedAt string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, views, created_at, updated_at FROM components WHERE source_id = ? AND slug = ?
	`, c.SourceID, c.Slug).Scan(&c.ID, &c.Views, &createdAt, &updatedAt)
	if err != nil {
		return err
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return err
	}
	if c.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return err
	}
	c.IsActive = true

	return nil
}

// TouchComponents bumps last_seen_at for the given slugs of a source.
func (s *ComponentService) TouchComponents(ctx context.Context, sourceID string, slugs []string, seenAt time.Time) error {
	if len(slugs) == 0 {
		return nil
	}

	args := []any{formatTime(seenAt), sourceID}
	for _, slug := range slugs {
		args = append(args, slug)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE components SET last_seen_at = ?
		WHERE source_id = ? AND slug IN (`+placeholders(len(slugs))+`)
	`, args...)
	return err
}

// DeactivateMissing soft-removes active components of the source whose slug
// is not in seenSlugs. Rows are never deleted; history, favorites and search
// logs keep resolving.
func (s *ComponentService) DeactivateMissing(ctx context.Context, sourceID string, seenSlugs []string) (int, error) {
	var query strings.Builder
	args := []any{formatTime(time.Now().UTC()), sourceID}

	query.WriteString("UPDATE components SET is_active = 0, updated_at = ? WHERE source_id = ? AND is_active = 1")
	if len(seenSlugs) > 0 {
		query.WriteString(" AND slug NOT IN (" + placeholders(len(seenSlugs)) + ")")
		for _, slug := range seenSlugs {
			args = append(args, slug)
		}
	}

	result, err := s.db.ExecContext(ctx, query.String(), args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	return int(rows), err
}

// FindComponentByID retrieves a component by ID.
func (s *ComponentService) FindComponentByID(ctx context.Context, id string) (*uidex.Component, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+componentColumns+`
		FROM components
		WHERE id = ?
	`, id)

	c, err := scanComponent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, uidex.Errorf(uidex.ENOTFOUND, "component not found")
	}
	return c, err
}

// FindComponents retrieves components matching the filter along with the
// total match count (for pagination). Only active rows are returned unless
// IncludeInactive is set.
func (s *ComponentService) FindComponents(ctx context.Context, filter uidex.ComponentFilter) ([]*uidex.Component, int, error) {
	where, args := buildComponentWhere(filter)

	var total int
	countArgs := make([]any, len(args))
	copy(countArgs, args)
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM components"+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	var query strings.Builder
	query.WriteString("SELECT " + componentColumns + " FROM components" + where)

	switch filter.SortBy {
	case uidex.SortByViews:
		query.WriteString(" ORDER BY views DESC, name ASC")
	case uidex.SortByUpdatedAt:
		query.WriteString(" ORDER BY updated_at DESC, name ASC")
	default:
		query.WriteString(" ORDER BY name ASC, slug ASC")
	}

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var components []*uidex.Component
	for rows.Next() {
		c, err := scanComponent(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		components = append(components, c)
	}

	return components, total, rows.Err()
}

// IncrementViews bumps the view counter by one.
func (s *ComponentService) IncrementViews(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE components SET views = views + 1 WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return uidex.Errorf(uidex.ENOTFOUND, "component not found")
	}
	return nil
}

// buildComponentWhere renders the WHERE clause for FindComponents so the
// count and select queries stay in lockstep.
func buildComponentWhere(filter uidex.ComponentFilter) (string, []any) {
	var where strings.Builder
	var args []any

	where.WriteString(" WHERE 1=1")

	if !filter.IncludeInactive {
		where.WriteString(" AND is_active = 1")
	}
	if filter.ID != nil {
		where.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SourceID != nil {
		where.WriteString(" AND source_id = ?")
		args = append(args, *filter.SourceID)
	}
	if filter.Slug != nil {
		where.WriteString(" AND slug = ?")
		args = append(args, *filter.Slug)
	}
	if filter.Tag != nil {
		// Tags are stored newline-separated; match the tag as a whole line.
		tag := strings.ToLower(*filter.Tag)
		where.WriteString(" AND (tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?)")
		args = append(args, tag, tag+"\n%", "%\n"+tag, "%\n"+tag+"\n%")
	}

	return where.String(), args
}

// scanComponent scans one component row using the provided scan function.
func scanComponent(scan func(dest ...any) error) (*uidex.Component, error) {
	var c uidex.Component
	var tags, dependencies, variants string
	var isActive int
	var createdAt, updatedAt, lastSeenAt string

	if err := scan(&c.ID, &c.SourceID, &c.Slug, &c.Name, &c.Description, &tags, &c.Code, &c.SourceURL,
		&dependencies, &variants, &c.Fingerprint, &isActive, &c.Views, &createdAt, &updatedAt, &lastSeenAt); err != nil {
		return nil, err
	}

	c.Tags = splitList(tags)
	c.Dependencies = splitList(dependencies)
	c.Variants = splitList(variants)
	c.IsActive = isActive != 0

	var err error
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	if c.LastSeenAt, err = parseTime(lastSeenAt, "last_seen_at"); err != nil {
		return nil, err
	}

	return &c, nil
}
