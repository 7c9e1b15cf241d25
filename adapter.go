package uidex

import "context"

// ItemRef identifies one candidate item discovered by a source listing.
type ItemRef struct {
	Slug      string
	DetailURL string
}

// RawItem is the unnormalized shape a source adapter produces for one
// component. Field values arrive as the site presents them; the
// normalizer owns trimming, ordering and fingerprinting.
type RawItem struct {
	Slug         string
	Name         string
	Description  string
	Code         string
	SourceURL    string
	Tags         []string
	Dependencies []string
	Variants     []string
}

// SourceAdapter is the per-site crawling capability. Implementations are
// site-specific and registered at startup; the orchestrator is the only
// caller. Both methods must honor context cancellation and deadlines.
type SourceAdapter interface {
	// List enumerates the candidate items the source currently offers.
	List(ctx context.Context) ([]ItemRef, error)

	// FetchDetail retrieves the full raw item for one listing entry.
	FetchDetail(ctx context.Context, ref ItemRef) (*RawItem, error)
}

// AdapterRegistry resolves source adapters by source slug.
type AdapterRegistry interface {
	// Register associates an adapter with a source slug, replacing any
	// previous registration.
	Register(slug string, adapter SourceAdapter)

	// Get returns the adapter for the slug.
	// Returns ENOTFOUND if no adapter is registered.
	Get(slug string) (SourceAdapter, error)

	// Slugs returns the registered source slugs in sorted order.
	Slugs() []string
}
