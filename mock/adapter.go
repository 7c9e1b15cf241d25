package mock

import (
	"context"

	"github.com/fwojciec/uidex"
)

var _ uidex.SourceAdapter = (*SourceAdapter)(nil)

// SourceAdapter is a mock implementation of uidex.SourceAdapter.
type SourceAdapter struct {
	ListFn        func(ctx context.Context) ([]uidex.ItemRef, error)
	FetchDetailFn func(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error)
}

func (a *SourceAdapter) List(ctx context.Context) ([]uidex.ItemRef, error) {
	return a.ListFn(ctx)
}

func (a *SourceAdapter) FetchDetail(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
	return a.FetchDetailFn(ctx, ref)
}
