// Package slog provides logging decorators for uidex interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/uidex"
)

// Ensure LoggingRegistry implements uidex.AdapterRegistry.
var _ uidex.AdapterRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps an AdapterRegistry so every resolved adapter logs
// its list and detail-fetch calls with timings.
type LoggingRegistry struct {
	next   uidex.AdapterRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next uidex.AdapterRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Register delegates to the wrapped registry.
func (r *LoggingRegistry) Register(slug string, adapter uidex.SourceAdapter) {
	r.next.Register(slug, adapter)
}

// Get returns the adapter for the slug, wrapped with call logging.
func (r *LoggingRegistry) Get(slug string) (uidex.SourceAdapter, error) {
	adapter, err := r.next.Get(slug)
	if err != nil {
		return nil, err
	}
	return &loggingAdapter{
		next:   adapter,
		logger: r.logger.With("source", slug),
	}, nil
}

// Slugs delegates to the wrapped registry.
func (r *LoggingRegistry) Slugs() []string {
	return r.next.Slugs()
}

// loggingAdapter logs adapter calls with duration and outcome.
type loggingAdapter struct {
	next   uidex.SourceAdapter
	logger *slog.Logger
}

func (a *loggingAdapter) List(ctx context.Context) ([]uidex.ItemRef, error) {
	begin := time.Now()
	refs, err := a.next.List(ctx)
	if err != nil {
		a.logger.Warn("adapter list failed", "duration", time.Since(begin), "error", err)
		return nil, err
	}
	a.logger.Info("adapter list", "items", len(refs), "duration", time.Since(begin))
	return refs, nil
}

func (a *loggingAdapter) FetchDetail(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
	begin := time.Now()
	raw, err := a.next.FetchDetail(ctx, ref)
	if err != nil {
		a.logger.Warn("adapter detail fetch failed", "slug", ref.Slug, "duration", time.Since(begin), "error", err)
		return nil, err
	}
	a.logger.Debug("adapter detail fetch", "slug", ref.Slug, "duration", time.Since(begin))
	return raw, nil
}
