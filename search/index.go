// Package search provides the ranked query engine over active catalog
// components. Queries are served from an immutable snapshot that a
// background rebuilder swaps atomically; readers never block on a rebuild
// and never observe a partially built index.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/uidex"
)

// Field weights: name matches dominate description matches, which dominate
// tag matches.
const (
	weightName        = 3.0
	weightDescription = 2.0
	weightTags        = 1.0
)

// Match-quality multipliers. Exact term hits always outscore substring and
// fuzzy hits of the same field weight.
const (
	multExact     = 1.0
	multSubstring = 0.75
	multFuzzy     = 0.5
)

// fuzzyMinTermLength guards short terms against edit-distance noise.
const fuzzyMinTermLength = 4

type field int

const (
	fieldName field = iota
	fieldDescription
	fieldTags
	fieldCount
)

var fieldWeights = [fieldCount]float64{weightName, weightDescription, weightTags}

// doc is one indexed component.
type doc struct {
	component  *uidex.Component
	sourceSlug string
	tagSet     map[string]struct{}
}

// Snapshot is an immutable inverted index over active components.
// Terms are interned to xxhash IDs; the vocabulary keeps the original term
// strings for substring and fuzzy scans.
type Snapshot struct {
	docs     []doc
	postings [fieldCount]map[uint64][]int // term ID -> doc indices
	vocab    map[uint64]string
	builtAt  time.Time
}

// Build constructs a snapshot from active components. sourceSlugByID maps
// source IDs to their slugs for filter evaluation; unknown sources index
// with an empty slug. Inactive components are ignored.
func Build(components []*uidex.Component, sourceSlugByID map[string]string) *Snapshot {
	s := &Snapshot{
		vocab:   make(map[uint64]string),
		builtAt: time.Now().UTC(),
	}
	for f := range s.postings {
		s.postings[f] = make(map[uint64][]int)
	}

	for _, c := range components {
		if !c.IsActive {
			continue
		}
		idx := len(s.docs)
		tagSet := make(map[string]struct{}, len(c.Tags))
		for _, tag := range c.Tags {
			tagSet[strings.ToLower(tag)] = struct{}{}
		}
		s.docs = append(s.docs, doc{
			component:  c,
			sourceSlug: sourceSlugByID[c.SourceID],
			tagSet:     tagSet,
		})

		s.index(fieldName, idx, tokenize(c.Name))
		s.index(fieldDescription, idx, tokenize(c.Description))
		s.index(fieldTags, idx, tokenizeAll(c.Tags))
	}

	return s
}

// Len returns the number of indexed components.
func (s *Snapshot) Len() int { return len(s.docs) }

// BuiltAt returns when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

func (s *Snapshot) index(f field, docIdx int, terms []string) {
	seen := make(map[uint64]struct{}, len(terms))
	for _, term := range terms {
		id := xxhash.Sum64String(term)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.vocab[id] = term
		s.postings[f][id] = append(s.postings[f][id], docIdx)
	}
}

// Search scores the snapshot against the query and returns ranked hits.
// Determinism: ties break by descending view count, then ascending name.
func (s *Snapshot) Search(query uidex.SearchQuery) *uidex.SearchResult {
	started := time.Now()

	terms := tokenize(query.Text)
	scores := make(map[int]float64)

	for _, term := range terms {
		// Best multiplier per (term, field, doc): an exact hit must not be
		// diluted by the same doc also matching via substring or fuzzy.
		best := make(map[int][fieldCount]float64)

		id := xxhash.Sum64String(term)
		for f := field(0); f < fieldCount; f++ {
			for _, docIdx := range s.postings[f][id] {
				bump(best, docIdx, f, multExact)
			}
		}

		// Substring and fuzzy hits require a vocabulary scan.
		for vocabID, vocabTerm := range s.vocab {
			if vocabID == id {
				continue
			}
			var mult float64
			switch {
			case strings.Contains(vocabTerm, term):
				mult = multSubstring
			case len(term) >= fuzzyMinTermLength && withinEditDistance(term, vocabTerm, 1):
				mult = multFuzzy
			default:
				continue
			}
			for f := field(0); f < fieldCount; f++ {
				for _, docIdx := range s.postings[f][vocabID] {
					bump(best, docIdx, f, mult)
				}
			}
		}

		for docIdx, mults := range best {
			for f := field(0); f < fieldCount; f++ {
				scores[docIdx] += fieldWeights[f] * mults[f]
			}
		}
	}

	hits := make([]uidex.SearchHit, 0, len(scores))
	for docIdx, score := range scores {
		d := s.docs[docIdx]
		if query.SourceSlug != "" && d.sourceSlug != query.SourceSlug {
			continue
		}
		if query.Tag != "" {
			if _, ok := d.tagSet[strings.ToLower(query.Tag)]; !ok {
				continue
			}
		}
		hits = append(hits, uidex.SearchHit{Component: d.component, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Component.Views != hits[j].Component.Views {
			return hits[i].Component.Views > hits[j].Component.Views
		}
		return hits[i].Component.Name < hits[j].Component.Name
	})

	total := len(hits)
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}

	return &uidex.SearchResult{
		Hits:    hits,
		Total:   total,
		Elapsed: time.Since(started),
	}
}

func bump(best map[int][fieldCount]float64, docIdx int, f field, mult float64) {
	mults := best[docIdx]
	if mult > mults[f] {
		mults[f] = mult
		best[docIdx] = mults
	}
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func tokenizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, tokenize(v)...)
	}
	return out
}

// Searcher adapts a Snapshot pointer holder to uidex.Searcher; see Index.
var _ uidex.Searcher = (*Index)(nil)

// Search implements uidex.Searcher on the live Index.
func (i *Index) Search(_ context.Context, query uidex.SearchQuery) (*uidex.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	snapshot := i.current.Load()
	if snapshot == nil {
		// No snapshot yet: serve an empty result rather than failing.
		return &uidex.SearchResult{Hits: []uidex.SearchHit{}}, nil
	}
	return snapshot.Search(query), nil
}
