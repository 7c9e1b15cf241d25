package uidex

import (
	"context"
	"time"
)

// MinQueryLength is the minimum number of characters a search query must
// contain. Shorter queries fail with EINVALID.
const MinQueryLength = 2

// SearchQuery describes one ranked lookup over active components.
type SearchQuery struct {
	Text       string `json:"text"`
	SourceSlug string `json:"sourceSlug"` // optional filter
	Tag        string `json:"tag"`        // optional filter
	Limit      int    `json:"limit"`
}

// Validate returns an error if the query is malformed.
func (q *SearchQuery) Validate() error {
	if len([]rune(q.Text)) < MinQueryLength {
		return Errorf(EINVALID, "query must be at least %d characters", MinQueryLength)
	}
	return nil
}

// SearchHit is one ranked match.
type SearchHit struct {
	Component *Component `json:"component"`
	Score     float64    `json:"score"`
}

// SearchResult is the outcome of one query.
type SearchResult struct {
	Hits    []SearchHit   `json:"hits"`
	Total   int           `json:"total"`
	Elapsed time.Duration `json:"elapsed"`
}

// Searcher answers relevance-ranked queries over active components.
// Implementations serve from a derived snapshot; results may lag the
// catalog by the snapshot rebuild interval but queries never block on a
// rebuild in progress.
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}
