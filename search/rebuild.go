package search

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/uidex"
)

// DefaultRebuildInterval bounds index staleness.
const DefaultRebuildInterval = 5 * time.Minute

// Index holds the live snapshot behind a single atomic pointer. Readers
// always see either the previous or the new snapshot, never a partial one.
type Index struct {
	current atomic.Pointer[Snapshot]
}

// NewIndex returns an empty Index. Queries against it succeed with zero
// hits until the first snapshot is swapped in.
func NewIndex() *Index {
	return &Index{}
}

// Swap publishes a new snapshot.
func (i *Index) Swap(s *Snapshot) {
	i.current.Store(s)
}

// Current returns the live snapshot, or nil before the first rebuild.
func (i *Index) Current() *Snapshot {
	return i.current.Load()
}

// Rebuilder periodically reconstructs the search snapshot from the catalog
// and swaps it into the Index. Rebuild failures are logged and the stale
// snapshot keeps serving.
type Rebuilder struct {
	Index      *Index
	Components uidex.ComponentService
	Sources    uidex.SourceService
	Logger     *slog.Logger

	// Interval between rebuilds.
	Interval time.Duration
}

// Run rebuilds immediately, then on every interval until ctx is cancelled.
func (r *Rebuilder) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.Rebuild(ctx); err != nil {
			r.logger().Error("index rebuild failed, serving stale snapshot", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Rebuild constructs a fresh snapshot from active components and swaps it in.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	components, _, err := r.Components.FindComponents(ctx, uidex.ComponentFilter{})
	if err != nil {
		return err
	}

	sources, err := r.Sources.FindSources(ctx, uidex.SourceFilter{})
	if err != nil {
		return err
	}
	slugByID := make(map[string]string, len(sources))
	for _, s := range sources {
		slugByID[s.ID] = s.Slug
	}

	snapshot := Build(components, slugByID)
	r.Index.Swap(snapshot)

	r.logger().Debug("index rebuilt", "components", snapshot.Len())
	return nil
}

func (r *Rebuilder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
