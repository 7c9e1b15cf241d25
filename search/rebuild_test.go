package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/mock"
	"github.com/fwojciec/uidex/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRebuilder(index *search.Index, components []*uidex.Component, findErr error) *search.Rebuilder {
	return &search.Rebuilder{
		Index: index,
		Components: &mock.ComponentService{
			FindComponentsFn: func(ctx context.Context, filter uidex.ComponentFilter) ([]*uidex.Component, int, error) {
				return components, len(components), findErr
			},
		},
		Sources: &mock.SourceService{
			FindSourcesFn: func(ctx context.Context, filter uidex.SourceFilter) ([]*uidex.Source, error) {
				return []*uidex.Source{{ID: "s1", Slug: "aceternity-ui"}}, nil
			},
		},
	}
}

func TestRebuilder_Rebuild(t *testing.T) {
	t.Parallel()

	t.Run("swaps a fresh snapshot in", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		rebuilder := newRebuilder(index, []*uidex.Component{component("a", "Button")}, nil)

		require.Nil(t, index.Current())
		require.NoError(t, rebuilder.Rebuild(context.Background()))

		snapshot := index.Current()
		require.NotNil(t, snapshot)
		assert.Equal(t, 1, snapshot.Len())
	})

	t.Run("failure keeps the stale snapshot serving", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		rebuilder := newRebuilder(index, []*uidex.Component{component("a", "Button")}, nil)
		require.NoError(t, rebuilder.Rebuild(context.Background()))
		stale := index.Current()

		rebuilder.Components = &mock.ComponentService{
			FindComponentsFn: func(ctx context.Context, filter uidex.ComponentFilter) ([]*uidex.Component, int, error) {
				return nil, 0, uidex.Errorf(uidex.EUNAVAILABLE, "db locked")
			},
		}
		require.Error(t, rebuilder.Rebuild(context.Background()))

		assert.Same(t, stale, index.Current())
		result, err := index.Search(context.Background(), uidex.SearchQuery{Text: "button"})
		require.NoError(t, err)
		assert.Len(t, result.Hits, 1)
	})

	t.Run("new snapshot replaces hits atomically", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		rebuilder := newRebuilder(index, []*uidex.Component{component("a", "Button")}, nil)
		require.NoError(t, rebuilder.Rebuild(context.Background()))

		rebuilder = newRebuilder(index, []*uidex.Component{component("b", "Card")}, nil)
		require.NoError(t, rebuilder.Rebuild(context.Background()))

		result, err := index.Search(context.Background(), uidex.SearchQuery{Text: "button"})
		require.NoError(t, err)
		assert.Empty(t, result.Hits, "old entries must vanish with the swap")
	})
}

func TestRebuilder_Run(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds immediately and stops on cancellation", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		rebuilder := newRebuilder(index, []*uidex.Component{component("a", "Button")}, nil)
		rebuilder.Interval = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := rebuilder.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotNil(t, index.Current(), "first rebuild happens before the first tick")
	})
}
