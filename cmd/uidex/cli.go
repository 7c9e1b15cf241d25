package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/crawl"
	"github.com/fwojciec/uidex/search"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Sources      uidex.SourceService
	Components   uidex.ComponentService
	Jobs         uidex.CrawlJobService
	Orchestrator *crawl.Orchestrator
	Scheduler    *crawl.Scheduler
	Index        *search.Index
	Rebuilder    *search.Rebuilder
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Source SourceCmd `cmd:"" help:"Manage crawl sources"`
	Crawl  CrawlCmd  `cmd:"" help:"Crawl one source now"`
	Status StatusCmd `cmd:"" help:"Show a crawl job"`
	Search SearchCmd `cmd:"" help:"Search the component catalog"`
	Browse BrowseCmd `cmd:"" help:"List catalog components"`
	Watch  WatchCmd  `cmd:"" help:"Run the crawl scheduler and index rebuilder"`
}

// SourceCmd groups source management subcommands.
type SourceCmd struct {
	Add  SourceAddCmd  `cmd:"" help:"Register a source"`
	List SourceListCmd `cmd:"" help:"List registered sources"`
}

// SourceAddCmd is the "source add" subcommand.
type SourceAddCmd struct {
	Slug     string `arg:"" help:"Source slug (must match a registered adapter)"`
	URL      string `arg:"" help:"Source base URL"`
	Name     string `help:"Display name (defaults to slug)"`
	Interval string `default:"24h" help:"Crawl cadence (Go duration)"`
}

// SourceListCmd is the "source list" subcommand.
type SourceListCmd struct{}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Slug  string `arg:"" help:"Source slug to crawl"`
	Force bool   `short:"f" help:"Cancel a stale running job first"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	JobID string `arg:"" optional:"" help:"Job ID (omit for recent jobs)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Free-text query"`
	Source string `help:"Filter by source slug"`
	Tag    string `help:"Filter by tag"`
	Limit  int    `default:"10" help:"Maximum results"`
}

// BrowseCmd is the "browse" subcommand.
type BrowseCmd struct {
	Source string `help:"Filter by source slug"`
	Tag    string `help:"Filter by tag"`
	Sort   string `default:"name" enum:"name,views,updated_at" help:"Sort order"`
	Page   int    `default:"1" help:"Page number"`
	Limit  int    `default:"20" help:"Page size"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct{}
