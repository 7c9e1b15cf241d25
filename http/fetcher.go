// Package http provides an HTTP-based implementation of uidex.Fetcher for
// retrieving pages from server-rendered component registries.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/uidex"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// userAgent identifies the crawler to source sites.
const userAgent = "uidex-crawler/1.0"

// Ensure Fetcher implements uidex.Fetcher at compile time.
var _ uidex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP requests.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL. Failures map to the
// error codes the orchestrator's retry and escalation logic keys on:
// ETIMEOUT for deadline problems, EUNAVAILABLE for transport and server
// errors, ENOTFOUND for missing pages.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", uidex.Errorf(uidex.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", uidex.Errorf(uidex.ETIMEOUT, "fetch %s: deadline exceeded", url)
		}
		return "", uidex.Errorf(uidex.EUNAVAILABLE, "fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", uidex.Errorf(uidex.ENOTFOUND, "fetch %s: not found", url)
	case resp.StatusCode != http.StatusOK:
		return "", uidex.Errorf(uidex.EUNAVAILABLE, "fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", uidex.Errorf(uidex.EUNAVAILABLE, "fetch %s: reading body: %v", url, err)
	}

	return string(body), nil
}
