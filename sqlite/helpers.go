package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// formatTime renders a timestamp as RFC3339, with the zero value stored as
// an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses an RFC3339 timestamp string; an empty string maps back
// to the zero value.
func parseTime(value, fieldName string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// joinList encodes a string slice as a newline-separated column value.
func joinList(values []string) string {
	return strings.Join(values, "\n")
}

// splitList decodes a newline-separated column value; empty maps to nil.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, "\n")
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// placeholders returns a comma-separated list of n SQL placeholders.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
