package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/uidex"
	"golang.org/x/sync/errgroup"
)

// Scheduler defaults.
const (
	DefaultTick                 = time.Minute
	DefaultMaxConcurrentSources = 3
)

// Scheduler periodically crawls sources that are due per their cadence.
// Multiple due sources crawl concurrently on a bounded pool; the one-job-
// per-source invariant is the orchestrator's CAS guard, not scheduler
// state, so running several scheduler instances is safe.
type Scheduler struct {
	Orchestrator *Orchestrator
	Sources      uidex.SourceService
	Logger       *slog.Logger

	// Tick is the polling interval for due sources.
	Tick time.Duration
	// MaxConcurrentSources bounds simultaneous crawl runs.
	MaxConcurrentSources int
}

// Run loops until the context is cancelled, crawling due sources each tick.
func (s *Scheduler) Run(ctx context.Context) error {
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if err := s.RunDue(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunDue crawls every source that is due now and waits for completion.
// Conflicts (another instance got there first) and per-source failures are
// logged, not returned; only context cancellation aborts the sweep.
func (s *Scheduler) RunDue(ctx context.Context) error {
	sources, err := s.Sources.FindSources(ctx, uidex.SourceFilter{})
	if err != nil {
		s.logger().Error("failed to list sources", "error", err)
		return nil
	}

	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	limit := s.MaxConcurrentSources
	if limit <= 0 {
		limit = DefaultMaxConcurrentSources
	}
	g.SetLimit(limit)

	for _, source := range sources {
		if !source.Due(now) {
			continue
		}
		source := source
		g.Go(func() error {
			job, err := s.Orchestrator.Crawl(gctx, source.Slug, false)
			switch {
			case err == nil:
				s.logger().Info("scheduled crawl finished", "source", source.Slug, "status", job.Status)
			case uidex.ErrorCode(err) == uidex.ECONFLICT:
				s.logger().Debug("crawl already running", "source", source.Slug)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				s.logger().Error("scheduled crawl failed to start", "source", source.Slug, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
