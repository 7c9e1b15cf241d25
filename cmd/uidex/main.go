package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/crawl"
	uihttp "github.com/fwojciec/uidex/http"
	"github.com/fwojciec/uidex/htmltomarkdown"
	"github.com/fwojciec/uidex/search"
	uislog "github.com/fwojciec/uidex/slog"
	"github.com/fwojciec/uidex/sqlite"
	"github.com/fwojciec/uidex/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Config Config

	// SQLite database used by the SQLite service implementations.
	DB *sqlite.DB

	// Services exposed for end-to-end testing.
	Sources    uidex.SourceService
	Components uidex.ComponentService
	Jobs       uidex.CrawlJobService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.Config = cfg

	logger := newLogger(stderr, cfg.LogLevel)

	// Open database
	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set UIDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()

	m.Sources = sqlite.NewSourceService(m.DB)
	m.Components = sqlite.NewComponentService(m.DB)
	m.Jobs = sqlite.NewCrawlJobService(m.DB)

	// Adapter stack: plain HTTP fetching, sanitized markdown descriptions,
	// trafilatura fallback extraction.
	fetcher := uihttp.NewFetcher(uihttp.WithTimeout(cfg.FetchTimeout))
	converter := htmltomarkdown.NewConverter()
	extractor := trafilatura.NewExtractor()

	registry := uislog.NewLoggingRegistry(crawl.NewRegistry(), logger)
	registerAdapters(registry, fetcher, converter, extractor)

	orchestrator := &crawl.Orchestrator{
		Sources:           m.Sources,
		Components:        m.Components,
		Jobs:              m.Jobs,
		Adapters:          registry,
		Limiter:           crawl.NewOriginLimiter(cfg.MinRequestDelay),
		Logger:            logger,
		DetailConcurrency: cfg.DetailConcurrency,
		MaxFailureRate:    cfg.MaxFailureRate,
		JobTimeout:        cfg.JobTimeout,
	}

	index := search.NewIndex()
	rebuilder := &search.Rebuilder{
		Index:      index,
		Components: m.Components,
		Sources:    m.Sources,
		Logger:     logger,
		Interval:   cfg.RebuildInterval,
	}
	scheduler := &crawl.Scheduler{
		Orchestrator:         orchestrator,
		Sources:              m.Sources,
		Logger:               logger,
		Tick:                 cfg.SchedulerTick,
		MaxConcurrentSources: cfg.MaxConcurrentSources,
	}

	deps := &Dependencies{
		Ctx:          ctx,
		Stdout:       stdout,
		Stderr:       stderr,
		Logger:       logger,
		Sources:      m.Sources,
		Components:   m.Components,
		Jobs:         m.Jobs,
		Orchestrator: orchestrator,
		Scheduler:    scheduler,
		Index:        index,
		Rebuilder:    rebuilder,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("uidex"),
		kong.Description("UI-component catalog crawler and search"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'uidex --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run()
}

// newLogger builds the program logger at the configured level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
