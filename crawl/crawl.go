// Package crawl provides crawl orchestration for component sources.
// It sequences adapter calls, enforces single-flight execution per source,
// applies retry with backoff, and drives normalization and merging of
// fetched items into the catalog.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/normalize"
	"golang.org/x/sync/errgroup"
)

// Orchestrator defaults.
const (
	DefaultDetailConcurrency = 4
	DefaultMaxFailureRate    = 0.5
	DefaultJobTimeout        = 10 * time.Minute
)

// Orchestrator drives crawl runs. Exclusivity per source is enforced by
// SourceService.BeginCrawl's compare-and-set at the storage layer, so a
// single Orchestrator value can be shared and multiple orchestrator
// processes can coexist. Live local runs additionally register a cancel
// func so a force trigger can stop them, not just flip their job rows.
type Orchestrator struct {
	Sources    uidex.SourceService
	Components uidex.ComponentService
	Jobs       uidex.CrawlJobService
	Adapters   uidex.AdapterRegistry
	Limiter    *OriginLimiter
	Logger     *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc // job ID -> cancel for live local runs

	// DetailConcurrency bounds parallel detail fetches within one source.
	DetailConcurrency int
	// RetryDelays are the backoff delays between adapter retries.
	RetryDelays []time.Duration
	// MaxFailureRate is the fraction of detail-fetch failures (relative to
	// items found) above which the whole job fails.
	MaxFailureRate float64
	// JobTimeout is the wall-clock ceiling for one run.
	JobTimeout time.Duration
}

// Trigger begins a crawl for the source and runs it in the background.
// It returns the job record once the run is underway, or ECONFLICT if a
// job for the source is already running. With force set, a stale running
// job is cancelled first and the trigger retried once.
func (o *Orchestrator) Trigger(ctx context.Context, slug string, force bool) (*uidex.CrawlJob, error) {
	source, adapter, job, err := o.begin(ctx, slug, force)
	if err != nil {
		return nil, err
	}

	// The run must outlive the triggering request.
	go o.run(context.WithoutCancel(ctx), source, adapter, job)

	return job, nil
}

// Crawl runs one crawl synchronously and returns the terminal job record.
// Used by the scheduler and the CLI; the guard semantics match Trigger.
func (o *Orchestrator) Crawl(ctx context.Context, slug string, force bool) (*uidex.CrawlJob, error) {
	source, adapter, job, err := o.begin(ctx, slug, force)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, source, adapter, job), nil
}

// begin resolves the source and adapter, wins (or loses) the single-flight
// guard, and creates the job record.
func (o *Orchestrator) begin(ctx context.Context, slug string, force bool) (*uidex.Source, uidex.SourceAdapter, *uidex.CrawlJob, error) {
	source, err := o.Sources.FindSourceBySlug(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}
	adapter, err := o.Adapters.Get(slug)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := o.Sources.BeginCrawl(ctx, source.ID); err != nil {
		if uidex.ErrorCode(err) != uidex.ECONFLICT || !force {
			return nil, nil, nil, err
		}
		if err := o.cancelStale(ctx, source.ID); err != nil {
			return nil, nil, nil, err
		}
		// One more attempt; a concurrent trigger may still win the race.
		if err := o.Sources.BeginCrawl(ctx, source.ID); err != nil {
			return nil, nil, nil, err
		}
	}

	job := &uidex.CrawlJob{
		SourceID: source.ID,
		Status:   uidex.JobStatusPending,
	}
	if err := o.Jobs.CreateCrawlJob(ctx, job); err != nil {
		// Release the guard so the source isn't stuck in running.
		if ferr := o.Sources.FinishCrawl(ctx, source.ID, uidex.CrawlStatusFailed, time.Now().UTC()); ferr != nil {
			o.logger().Error("failed to release crawl guard", "source", slug, "error", ferr)
		}
		return nil, nil, nil, err
	}

	return source, adapter, job, nil
}

// cancelStale marks any running jobs for the source as cancelled, stops
// their local runs if they are live in this process, and clears the
// source's running status. The job row flips first: once the row is
// terminal the run's own finish sees ECONFLICT and disowns the job, so it
// can never release the guard the replacement is about to take.
func (o *Orchestrator) cancelStale(ctx context.Context, sourceID string) error {
	now := time.Now().UTC()
	cancelled := uidex.JobStatusCancelled

	// Pending rows are included: a job whose run hasn't flipped to running
	// yet would otherwise slip past the sweep and turn into a zombie.
	for _, status := range []string{uidex.JobStatusPending, uidex.JobStatusRunning} {
		status := status
		jobs, err := o.Jobs.FindCrawlJobs(ctx, uidex.CrawlJobFilter{SourceID: &sourceID, Status: &status})
		if err != nil {
			return err
		}
		for _, job := range jobs {
			if _, err := o.Jobs.UpdateCrawlJob(ctx, job.ID, uidex.CrawlJobUpdate{
				Status:  &cancelled,
				EndedAt: &now,
			}); err != nil && uidex.ErrorCode(err) != uidex.ECONFLICT {
				return err
			}
			o.cancelRun(job.ID)
		}
	}
	return o.Sources.FinishCrawl(ctx, sourceID, uidex.CrawlStatusFailed, now)
}

// registerCancel makes a live run stoppable by job ID.
func (o *Orchestrator) registerCancel(jobID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancels == nil {
		o.cancels = make(map[string]context.CancelFunc)
	}
	o.cancels[jobID] = cancel
}

func (o *Orchestrator) unregisterCancel(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.cancels, jobID)
}

// cancelRun stops the local run for the job, if one is live. Runs owned by
// other processes have no entry here; for those the flipped job row is the
// only cancellation channel.
func (o *Orchestrator) cancelRun(jobID string) {
	o.mu.Lock()
	cancel := o.cancels[jobID]
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// counters accumulates per-item outcomes for one run.
type counters struct {
	found   int
	added   int
	updated int
	removed int
	skipped int
}

// run executes one crawl to its terminal state and returns the final job.
func (o *Orchestrator) run(ctx context.Context, source *uidex.Source, adapter uidex.SourceAdapter, job *uidex.CrawlJob) *uidex.CrawlJob {
	logger := o.logger().With("source", source.Slug, "job", job.ID)

	ctx, cancel := context.WithTimeout(ctx, o.jobTimeout())
	defer cancel()
	o.registerCancel(job.ID, cancel)
	defer o.unregisterCancel(job.ID)

	running := uidex.JobStatusRunning
	if _, err := o.Jobs.UpdateCrawlJob(ctx, job.ID, uidex.CrawlJobUpdate{Status: &running}); err != nil {
		return o.finish(ctx, source, job, uidex.JobStatusFailed, counters{}, err, logger)
	}

	delays := o.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	refs, err := retry(ctx, delays, adapter.List)
	if err != nil {
		status, err := classify(ctx, err)
		return o.finish(ctx, source, job, status, counters{}, err, logger)
	}
	refs = dedupeRefs(refs)

	var tally counters
	tally.found = len(refs)

	merger, err := NewMerger(ctx, o.Components, source.ID)
	if err != nil {
		return o.finish(ctx, source, job, uidex.JobStatusFailed, tally, err, logger)
	}

	// Detail fetches run on a bounded pool; all merge writes happen on
	// this goroutine, which keeps writes per (source, slug) sequential.
	var fetchFailures, malformed atomic.Int64
	items := make(chan *uidex.Component)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.detailConcurrency())

	go func() {
		defer close(items)
		for _, ref := range refs {
			ref := ref
			g.Go(func() error {
				return o.fetchItem(gctx, source, adapter, ref, delays, items, &fetchFailures, &malformed, logger)
			})
		}
		_ = g.Wait()
	}()

	for c := range items {
		outcome, err := merger.Apply(ctx, c)
		if err != nil {
			// One retry per item; a second failure is counted and skipped
			// without aborting the job.
			outcome, err = merger.Apply(ctx, c)
		}
		if err != nil {
			tally.skipped++
			logger.Warn("catalog write failed, item skipped", "slug", c.Slug, "error", err)
			continue
		}
		switch outcome {
		case OutcomeAdded:
			tally.added++
		case OutcomeUpdated:
			tally.updated++
		}
	}

	tally.skipped += int(fetchFailures.Load() + malformed.Load())

	if status, cerr := classify(ctx, nil); cerr != nil {
		return o.finish(ctx, source, job, status, tally, cerr, logger)
	}

	if tally.found > 0 {
		failureRate := float64(fetchFailures.Load()) / float64(tally.found)
		if failureRate > o.maxFailureRate() {
			err := uidex.Errorf(uidex.EUNAVAILABLE, "adapter failure rate %.0f%% exceeds threshold", failureRate*100)
			return o.finish(ctx, source, job, uidex.JobStatusFailed, tally, err, logger)
		}
	}

	removed, err := merger.Finalize(ctx)
	if err != nil {
		return o.finish(ctx, source, job, uidex.JobStatusFailed, tally, err, logger)
	}
	tally.removed = removed

	return o.finish(ctx, source, job, uidex.JobStatusSuccess, tally, nil, logger)
}

// fetchItem fetches and normalizes one listed item, sending successes to out.
// Fetch and malformed-item failures are counted, logged and swallowed; only
// context errors propagate, which stops the pool.
func (o *Orchestrator) fetchItem(ctx context.Context, source *uidex.Source, adapter uidex.SourceAdapter, ref uidex.ItemRef, delays []time.Duration, out chan<- *uidex.Component, fetchFailures, malformed *atomic.Int64, logger *slog.Logger) error {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx, originOf(ref.DetailURL, source.BaseURL)); err != nil {
			return err
		}
	}

	raw, err := retry(ctx, delays, func(ctx context.Context) (*uidex.RawItem, error) {
		return adapter.FetchDetail(ctx, ref)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetchFailures.Add(1)
		logger.Warn("detail fetch failed after retries", "slug", ref.Slug, "error", err)
		return nil
	}

	c, err := normalize.Item(source.ID, raw)
	if err != nil {
		malformed.Add(1)
		logger.Warn("malformed item skipped", "slug", ref.Slug, "error", err)
		return nil
	}

	select {
	case out <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish writes the single terminal job update and the source's terminal
// crawl status, then returns the final job record.
func (o *Orchestrator) finish(ctx context.Context, source *uidex.Source, job *uidex.CrawlJob, status string, tally counters, cause error, logger *slog.Logger) *uidex.CrawlJob {
	// Terminal bookkeeping must complete even when the job context is done.
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()

	upd := uidex.CrawlJobUpdate{
		Status:  &status,
		Found:   &tally.found,
		Added:   &tally.added,
		Updated: &tally.updated,
		Removed: &tally.removed,
		Skipped: &tally.skipped,
		EndedAt: &now,
	}
	if cause != nil {
		code := uidex.ErrorCode(cause)
		msg := uidex.ErrorMessage(cause)
		upd.ErrorCode = &code
		upd.ErrorMessage = &msg
	}

	final, err := o.Jobs.UpdateCrawlJob(ctx, job.ID, upd)
	if err != nil {
		if uidex.ErrorCode(err) == uidex.ECONFLICT {
			// The job row went terminal under this run: a force trigger
			// cancelled it and a replacement owns the source guard now.
			// Touching the source status here would release that guard,
			// so the disowned run leaves all terminal bookkeeping alone.
			logger.Info("run superseded, job already terminal", "status", status)
			if current, ferr := o.Jobs.FindCrawlJobByID(ctx, job.ID); ferr == nil {
				return current
			}
			return job
		}
		logger.Error("failed to record terminal job status", "status", status, "error", err)
		final = job
	}

	// The source status enum has no cancelled member; a cancelled run
	// leaves the source in failed so the scheduler retries it.
	sourceStatus := uidex.CrawlStatusFailed
	if status == uidex.JobStatusSuccess {
		sourceStatus = uidex.CrawlStatusSuccess
	}
	if err := o.Sources.FinishCrawl(ctx, source.ID, sourceStatus, now); err != nil {
		logger.Error("failed to record source crawl status", "error", err)
	}

	logger.Info("crawl finished",
		"status", status,
		"found", tally.found,
		"added", tally.added,
		"updated", tally.updated,
		"removed", tally.removed,
		"skipped", tally.skipped,
	)

	return final
}

// classify maps a run-level error and the context state to a terminal job
// status. Cancellation wins over whatever error surfaced it.
func classify(ctx context.Context, err error) (string, error) {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return uidex.JobStatusCancelled, uidex.Errorf(uidex.EUNAVAILABLE, "crawl cancelled")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return uidex.JobStatusFailed, uidex.Errorf(uidex.ETIMEOUT, "crawl exceeded wall-clock ceiling")
	case err != nil:
		return uidex.JobStatusFailed, err
	}
	return "", nil
}

// originOf returns the host of rawURL, falling back to the host of fallback.
func originOf(rawURL, fallback string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	if u, err := url.Parse(fallback); err == nil {
		return u.Host
	}
	return fallback
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) detailConcurrency() int {
	if o.DetailConcurrency > 0 {
		return o.DetailConcurrency
	}
	return DefaultDetailConcurrency
}

func (o *Orchestrator) maxFailureRate() float64 {
	if o.MaxFailureRate > 0 {
		return o.MaxFailureRate
	}
	return DefaultMaxFailureRate
}

func (o *Orchestrator) jobTimeout() time.Duration {
	if o.JobTimeout > 0 {
		return o.JobTimeout
	}
	return DefaultJobTimeout
}
