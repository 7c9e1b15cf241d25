package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/uidex"
	"golang.org/x/sync/errgroup"
)

// Run registers a new source.
func (c *SourceAddCmd) Run(deps *Dependencies) error {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return uidex.Errorf(uidex.EINVALID, "invalid interval %q: %v", c.Interval, err)
	}

	name := c.Name
	if name == "" {
		name = c.Slug
	}

	source := &uidex.Source{
		Slug:          c.Slug,
		Name:          name,
		BaseURL:       c.URL,
		CrawlInterval: interval,
	}
	if err := deps.Sources.CreateSource(deps.Ctx, source); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added source %s (%s), crawling every %s\n", source.Slug, source.BaseURL, interval)
	return nil
}

// Run lists registered sources.
func (c *SourceListCmd) Run(deps *Dependencies) error {
	sources, err := deps.Sources.FindSources(deps.Ctx, uidex.SourceFilter{})
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources registered.")
		return nil
	}

	for _, s := range sources {
		last := "never"
		if !s.LastCrawledAt.IsZero() {
			last = s.LastCrawledAt.Format(time.RFC3339)
		}
		fmt.Fprintf(deps.Stdout, "%-20s %-10s last crawled %s\n", s.Slug, s.CrawlStatus, last)
	}
	return nil
}

// Run crawls one source synchronously and prints the outcome.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	job, err := deps.Orchestrator.Crawl(deps.Ctx, c.Slug, c.Force)
	if err != nil {
		return err
	}

	printJob(deps, job)
	if job.Status != uidex.JobStatusSuccess {
		return fmt.Errorf("crawl %s: %s", job.Status, job.ErrorMessage)
	}
	return nil
}

// Run shows one crawl job, or the most recent jobs when no ID is given.
func (c *StatusCmd) Run(deps *Dependencies) error {
	if c.JobID != "" {
		job, err := deps.Jobs.FindCrawlJobByID(deps.Ctx, c.JobID)
		if err != nil {
			return err
		}
		printJob(deps, job)
		return nil
	}

	jobs, err := deps.Jobs.FindCrawlJobs(deps.Ctx, uidex.CrawlJobFilter{Limit: 10})
	if err != nil {
		return err
	}
	for _, job := range jobs {
		printJob(deps, job)
	}
	return nil
}

// Run performs a ranked search over the live index.
func (c *SearchCmd) Run(deps *Dependencies) error {
	// The CLI has no background rebuilder; build the snapshot on demand.
	if deps.Index.Current() == nil {
		if err := deps.Rebuilder.Rebuild(deps.Ctx); err != nil {
			return err
		}
	}

	result, err := deps.Index.Search(deps.Ctx, uidex.SearchQuery{
		Text:       c.Query,
		SourceSlug: c.Source,
		Tag:        c.Tag,
		Limit:      c.Limit,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "%d results in %s\n", result.Total, result.Elapsed)
	for _, hit := range result.Hits {
		fmt.Fprintf(deps.Stdout, "%6.2f  %-30s %s\n", hit.Score, hit.Component.Name, hit.Component.SourceURL)
	}
	return nil
}

// Run pages through catalog components; this delegates to the store, not
// the search index.
func (c *BrowseCmd) Run(deps *Dependencies) error {
	filter := uidex.ComponentFilter{
		SortBy: uidex.ComponentSort(c.Sort),
		Limit:  c.Limit,
		Offset: (c.Page - 1) * c.Limit,
	}
	if c.Source != "" {
		source, err := deps.Sources.FindSourceBySlug(deps.Ctx, c.Source)
		if err != nil {
			return err
		}
		filter.SourceID = &source.ID
	}
	if c.Tag != "" {
		filter.Tag = &c.Tag
	}

	components, total, err := deps.Components.FindComponents(deps.Ctx, filter)
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Page %d (%d components total)\n", c.Page, total)
	for _, comp := range components {
		tags := ""
		if len(comp.Tags) > 0 {
			tags = " [" + strings.Join(comp.Tags, ", ") + "]"
		}
		fmt.Fprintf(deps.Stdout, "%-30s %5d views%s\n", comp.Name, comp.Views, tags)
	}
	return nil
}

// Run drives the scheduler and index rebuilder until interrupted.
func (c *WatchCmd) Run(deps *Dependencies) error {
	deps.Logger.Info("watching sources", "tick", deps.Scheduler.Tick)

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error { return deps.Scheduler.Run(ctx) })
	g.Go(func() error { return deps.Rebuilder.Run(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printJob renders one job record.
func printJob(deps *Dependencies, job *uidex.CrawlJob) {
	fmt.Fprintf(deps.Stdout, "%s  %-9s found=%d added=%d updated=%d removed=%d skipped=%d",
		job.ID, job.Status, job.Found, job.Added, job.Updated, job.Removed, job.Skipped)
	if job.ErrorMessage != "" {
		fmt.Fprintf(deps.Stdout, "  error=%s (%s)", job.ErrorMessage, job.ErrorCode)
	}
	fmt.Fprintln(deps.Stdout)
}
