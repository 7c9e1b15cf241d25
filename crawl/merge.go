package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/uidex"
)

// Outcome classifies what the merge engine did with one incoming component.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

// Merger computes the delta between one crawl's normalized components and
// the source's existing active catalog entries, and applies it.
//
// A Merger serves exactly one crawl job and must be driven by a single
// goroutine: the orchestrator funnels all normalized items through one
// consumer, which is what guarantees sequential writes per (source, slug).
type Merger struct {
	components uidex.ComponentService
	sourceID   string
	existing   map[string]*uidex.Component // active rows at job start, by slug
	seen       []string                    // slugs observed this run, in order
	unchanged  []string                    // subset of seen with matching fingerprints
	now        func() time.Time
}

// NewMerger loads the source's active components and returns a Merger
// ready to classify incoming items against them.
func NewMerger(ctx context.Context, components uidex.ComponentService, sourceID string) (*Merger, error) {
	existing := make(map[string]*uidex.Component)
	active, _, err := components.FindComponents(ctx, uidex.ComponentFilter{SourceID: &sourceID})
	if err != nil {
		return nil, err
	}
	for _, c := range active {
		existing[c.Slug] = c
	}
	return &Merger{
		components: components,
		sourceID:   sourceID,
		existing:   existing,
		now:        time.Now,
	}, nil
}

// Apply classifies one normalized component and performs the minimal write:
// an upsert for added or changed content, no write at all for unchanged
// content (last-seen bumping is batched in Finalize).
func (m *Merger) Apply(ctx context.Context, c *uidex.Component) (Outcome, error) {
	m.seen = append(m.seen, c.Slug)

	prev, ok := m.existing[c.Slug]
	if ok && prev.Fingerprint == c.Fingerprint {
		m.unchanged = append(m.unchanged, c.Slug)
		return OutcomeUnchanged, nil
	}

	now := m.now().UTC()
	c.IsActive = true
	c.LastSeenAt = now
	if err := m.components.UpsertComponent(ctx, c); err != nil {
		// Roll back the seen entry so a skipped item isn't treated as
		// present when staleness is computed.
		m.seen = m.seen[:len(m.seen)-1]
		return 0, err
	}

	if ok {
		return OutcomeUpdated, nil
	}
	return OutcomeAdded, nil
}

// Finalize runs the end-of-crawl batch work: bump last-seen on unchanged
// rows and soft-remove active rows whose slug never appeared this run.
// Returns the number of rows deactivated.
func (m *Merger) Finalize(ctx context.Context) (int, error) {
	now := m.now().UTC()
	if len(m.unchanged) > 0 {
		if err := m.components.TouchComponents(ctx, m.sourceID, m.unchanged, now); err != nil {
			return 0, err
		}
	}
	return m.components.DeactivateMissing(ctx, m.sourceID, m.seen)
}
