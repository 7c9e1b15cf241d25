package crawl_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/crawl"
	"github.com/fwojciec/uidex/mock"
	"github.com/fwojciec/uidex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires an orchestrator against a real in-memory store with a mock
// adapter, so scenarios exercise the CAS guard and merge writes end to end.
type harness struct {
	orchestrator *crawl.Orchestrator
	sources      uidex.SourceService
	components   uidex.ComponentService
	jobs         uidex.CrawlJobService
	adapter      *mock.SourceAdapter
	source       *uidex.Source
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	sources := sqlite.NewSourceService(db)
	components := sqlite.NewComponentService(db)
	jobs := sqlite.NewCrawlJobService(db)

	source := &uidex.Source{Slug: "aceternity-ui", BaseURL: "https://ui.aceternity.com"}
	require.NoError(t, sources.CreateSource(context.Background(), source))

	adapter := &mock.SourceAdapter{}
	registry := crawl.NewRegistry()
	registry.Register(source.Slug, adapter)

	return &harness{
		orchestrator: &crawl.Orchestrator{
			Sources:     sources,
			Components:  components,
			Jobs:        jobs,
			Adapters:    registry,
			RetryDelays: []time.Duration{}, // single attempt, no sleeping in tests
		},
		sources:    sources,
		components: components,
		jobs:       jobs,
		adapter:    adapter,
		source:     source,
	}
}

// serveItems configures the adapter to list and serve the given items.
func (h *harness) serveItems(items map[string]*uidex.RawItem) {
	h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
		var refs []uidex.ItemRef
		for slug := range items {
			refs = append(refs, uidex.ItemRef{Slug: slug, DetailURL: "https://ui.aceternity.com/components/" + slug})
		}
		return refs, nil
	}
	h.adapter.FetchDetailFn = func(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
		item, ok := items[ref.Slug]
		if !ok {
			return nil, uidex.Errorf(uidex.EUNAVAILABLE, "no such item")
		}
		return item, nil
	}
}

func rawItem(slug, code string) *uidex.RawItem {
	return &uidex.RawItem{
		Slug:      slug,
		Name:      "Item " + slug,
		Code:      code,
		SourceURL: "https://ui.aceternity.com/components/" + slug,
	}
}

func TestOrchestrator_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("first run adds all discovered items", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveItems(map[string]*uidex.RawItem{
			"one":   rawItem("one", "code-1"),
			"two":   rawItem("two", "code-2"),
			"three": rawItem("three", "code-3"),
		})

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusSuccess, job.Status)
		assert.Equal(t, 3, job.Found)
		assert.Equal(t, 3, job.Added)
		assert.Equal(t, 0, job.Updated)
		assert.Equal(t, 0, job.Removed)

		source, err := h.sources.FindSourceBySlug(context.Background(), "aceternity-ui")
		require.NoError(t, err)
		assert.Equal(t, uidex.CrawlStatusSuccess, source.CrawlStatus)
		assert.False(t, source.LastCrawledAt.IsZero())
	})

	t.Run("re-crawling unchanged data writes nothing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		items := map[string]*uidex.RawItem{
			"one": rawItem("one", "code-1"),
			"two": rawItem("two", "code-2"),
		}
		h.serveItems(items)

		_, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		before, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{})
		require.NoError(t, err)

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusSuccess, job.Status)
		assert.Equal(t, 0, job.Added)
		assert.Equal(t, 0, job.Updated)
		assert.Equal(t, 0, job.Removed)

		after, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{})
		require.NoError(t, err)
		for i := range before {
			assert.Equal(t, before[i].UpdatedAt, after[i].UpdatedAt, "unchanged items must not be rewritten")
			assert.Equal(t, before[i].ID, after[i].ID)
		}
	})

	t.Run("changed and vanished items update and soft-remove", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveItems(map[string]*uidex.RawItem{
			"one":   rawItem("one", "code-1"),
			"two":   rawItem("two", "code-2"),
			"three": rawItem("three", "code-3"),
		})
		_, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		// Second run: item two modified, item three gone.
		h.serveItems(map[string]*uidex.RawItem{
			"one": rawItem("one", "code-1"),
			"two": rawItem("two", "code-2-changed"),
		})
		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusSuccess, job.Status)
		assert.Equal(t, 2, job.Found)
		assert.Equal(t, 0, job.Added)
		assert.Equal(t, 1, job.Updated)
		assert.Equal(t, 1, job.Removed)

		// The vanished row persists, inactive.
		slug := "three"
		all, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{Slug: &slug, IncludeInactive: true})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].IsActive)

		active, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{Slug: &slug})
		require.NoError(t, err)
		assert.Empty(t, active, "inactive rows are excluded by default")
	})

	t.Run("update preserves id and view count", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveItems(map[string]*uidex.RawItem{"one": rawItem("one", "code-1")})
		_, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		slug := "one"
		before, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{Slug: &slug})
		require.NoError(t, err)
		require.Len(t, before, 1)
		require.NoError(t, h.components.IncrementViews(context.Background(), before[0].ID))

		h.serveItems(map[string]*uidex.RawItem{"one": rawItem("one", "code-1-changed")})
		_, err = h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		after, _, err := h.components.FindComponents(context.Background(), uidex.ComponentFilter{Slug: &slug})
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, before[0].ID, after[0].ID)
		assert.Equal(t, 1, after[0].Views)
		assert.NotEqual(t, before[0].Fingerprint, after[0].Fingerprint)
	})

	t.Run("malformed items are skipped without failing the job", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		broken := rawItem("broken", "")
		broken.Code = "" // missing required field
		h.serveItems(map[string]*uidex.RawItem{
			"good":   rawItem("good", "code"),
			"broken": broken,
		})

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusSuccess, job.Status)
		assert.Equal(t, 2, job.Found)
		assert.Equal(t, 1, job.Added)
		assert.Equal(t, 1, job.Skipped)
	})

	t.Run("escalates to failure when too many fetches fail", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveItems(map[string]*uidex.RawItem{"one": rawItem("one", "code-1")})
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			return []uidex.ItemRef{{Slug: "one"}, {Slug: "two"}, {Slug: "three"}}, nil
		}
		h.adapter.FetchDetailFn = func(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
			if ref.Slug == "one" {
				return rawItem("one", "code-1"), nil
			}
			return nil, uidex.Errorf(uidex.EUNAVAILABLE, "server error")
		}

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusFailed, job.Status)
		assert.Equal(t, uidex.EUNAVAILABLE, job.ErrorCode)
		assert.Equal(t, 2, job.Skipped)

		source, err := h.sources.FindSourceBySlug(context.Background(), "aceternity-ui")
		require.NoError(t, err)
		assert.Equal(t, uidex.CrawlStatusFailed, source.CrawlStatus)
	})

	t.Run("listing failure fails the job with diagnostic detail", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			return nil, uidex.Errorf(uidex.EUNAVAILABLE, "site structure changed")
		}

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusFailed, job.Status)
		assert.Equal(t, uidex.EUNAVAILABLE, job.ErrorCode)
		assert.Contains(t, job.ErrorMessage, "site structure changed")
	})

	t.Run("job exceeding wall-clock ceiling fails with timeout", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.orchestrator.JobTimeout = 20 * time.Millisecond
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusFailed, job.Status)
		assert.Equal(t, uidex.ETIMEOUT, job.ErrorCode)
	})

	t.Run("cancellation produces a cancelled job", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		ctx, cancel := context.WithCancel(context.Background())
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			return []uidex.ItemRef{{Slug: "one"}}, nil
		}
		h.adapter.FetchDetailFn = func(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}

		job, err := h.orchestrator.Crawl(ctx, "aceternity-ui", false)
		require.NoError(t, err)

		assert.Equal(t, uidex.JobStatusCancelled, job.Status)
	})
}

func TestOrchestrator_Exclusivity(t *testing.T) {
	t.Parallel()

	t.Run("concurrent triggers admit exactly one runner", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)

		started := make(chan struct{})
		release := make(chan struct{})
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			close(started)
			<-release
			return nil, nil
		}

		var wg sync.WaitGroup
		wg.Add(1)
		var firstJob *uidex.CrawlJob
		var firstErr error
		go func() {
			defer wg.Done()
			firstJob, firstErr = h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		}()

		<-started
		_, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.Error(t, err)
		assert.Equal(t, uidex.ECONFLICT, uidex.ErrorCode(err))

		close(release)
		wg.Wait()
		require.NoError(t, firstErr)
		assert.Equal(t, uidex.JobStatusSuccess, firstJob.Status)
	})

	t.Run("force cancels the stale job and proceeds", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)

		// Simulate a crashed orchestrator: source stuck running with a
		// running job row left behind.
		require.NoError(t, h.sources.BeginCrawl(context.Background(), h.source.ID))
		stale := &uidex.CrawlJob{SourceID: h.source.ID, Status: uidex.JobStatusRunning}
		require.NoError(t, h.jobs.CreateCrawlJob(context.Background(), stale))

		h.serveItems(map[string]*uidex.RawItem{"one": rawItem("one", "code-1")})

		_, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.Error(t, err)
		assert.Equal(t, uidex.ECONFLICT, uidex.ErrorCode(err))

		job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", true)
		require.NoError(t, err)
		assert.Equal(t, uidex.JobStatusSuccess, job.Status)

		staleAfter, err := h.jobs.FindCrawlJobByID(context.Background(), stale.ID)
		require.NoError(t, err)
		assert.Equal(t, uidex.JobStatusCancelled, staleAfter.Status)
	})

	t.Run("force stops a live run and the loser leaves the guard alone", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)

		firstStarted := make(chan struct{})
		firstExited := make(chan struct{})
		secondStarted := make(chan struct{})
		secondRelease := make(chan struct{})

		var calls atomic.Int32
		h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
			switch calls.Add(1) {
			case 1:
				close(firstStarted)
				<-ctx.Done()
				close(firstExited)
				return nil, ctx.Err()
			case 2:
				close(secondStarted)
				<-secondRelease
				return nil, nil
			default:
				return nil, nil
			}
		}

		first, err := h.orchestrator.Trigger(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)
		<-firstStarted

		second, err := h.orchestrator.Trigger(context.Background(), "aceternity-ui", true)
		require.NoError(t, err)
		<-secondStarted

		// The superseded run must actually stop, not just have its row
		// flipped while it keeps working underneath the replacement.
		select {
		case <-firstExited:
		case <-time.After(5 * time.Second):
			t.Fatal("superseded run was never cancelled")
		}

		firstAfter, err := h.jobs.FindCrawlJobByID(context.Background(), first.ID)
		require.NoError(t, err)
		assert.Equal(t, uidex.JobStatusCancelled, firstAfter.Status)

		// Let the superseded run finish its terminal bookkeeping, then
		// confirm it did not release the guard the replacement holds.
		time.Sleep(100 * time.Millisecond)
		source, err := h.sources.FindSourceBySlug(context.Background(), "aceternity-ui")
		require.NoError(t, err)
		assert.Equal(t, uidex.CrawlStatusRunning, source.CrawlStatus)

		_, err = h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
		require.Error(t, err)
		assert.Equal(t, uidex.ECONFLICT, uidex.ErrorCode(err))

		close(secondRelease)
		require.Eventually(t, func() bool {
			current, err := h.jobs.FindCrawlJobByID(context.Background(), second.ID)
			return err == nil && current.Status == uidex.JobStatusSuccess
		}, 5*time.Second, 10*time.Millisecond)

		source, err = h.sources.FindSourceBySlug(context.Background(), "aceternity-ui")
		require.NoError(t, err)
		assert.Equal(t, uidex.CrawlStatusSuccess, source.CrawlStatus)
	})
}

func TestOrchestrator_Trigger(t *testing.T) {
	t.Parallel()

	t.Run("returns the job and finishes in the background", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveItems(map[string]*uidex.RawItem{"one": rawItem("one", "code-1")})

		job, err := h.orchestrator.Trigger(context.Background(), "aceternity-ui", false)
		require.NoError(t, err)
		require.NotEmpty(t, job.ID)

		require.Eventually(t, func() bool {
			current, err := h.jobs.FindCrawlJobByID(context.Background(), job.ID)
			return err == nil && current.Status == uidex.JobStatusSuccess
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("unknown source fails fast", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		_, err := h.orchestrator.Trigger(context.Background(), "no-such-source", false)
		require.Error(t, err)
		assert.Equal(t, uidex.ENOTFOUND, uidex.ErrorCode(err))
	})
}

func TestOrchestrator_DetailConcurrencyBound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.orchestrator.DetailConcurrency = 2

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	h.adapter.ListFn = func(ctx context.Context) ([]uidex.ItemRef, error) {
		refs := make([]uidex.ItemRef, 8)
		for i := range refs {
			refs[i] = uidex.ItemRef{Slug: fmt.Sprintf("item-%d", i)}
		}
		return refs, nil
	}
	h.adapter.FetchDetailFn = func(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return rawItem(ref.Slug, "code-"+ref.Slug), nil
	}

	job, err := h.orchestrator.Crawl(context.Background(), "aceternity-ui", false)
	require.NoError(t, err)

	assert.Equal(t, uidex.JobStatusSuccess, job.Status)
	assert.Equal(t, 8, job.Added)
	assert.LessOrEqual(t, maxInFlight, 2, "detail fetches must respect the concurrency bound")
}
