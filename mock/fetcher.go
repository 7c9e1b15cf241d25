package mock

import (
	"context"

	"github.com/fwojciec/uidex"
)

var _ uidex.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of uidex.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

var _ uidex.Converter = (*Converter)(nil)

// Converter is a mock implementation of uidex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ uidex.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of uidex.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*uidex.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*uidex.ExtractResult, error) {
	return e.ExtractFn(html)
}
