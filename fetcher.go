package uidex

import "context"

// Fetcher retrieves raw HTML from URLs. The reference adapter uses a plain
// HTTP implementation; site-specific adapters may bring their own.
type Fetcher interface {
	// Fetch retrieves the body at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)
}
