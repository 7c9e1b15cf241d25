package search_test

import (
	"context"
	"testing"

	"github.com/fwojciec/uidex"
	"github.com/fwojciec/uidex/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func component(id, name string, opts ...func(*uidex.Component)) *uidex.Component {
	c := &uidex.Component{
		ID:       id,
		SourceID: "s1",
		Slug:     id,
		Name:     name,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func withTags(tags ...string) func(*uidex.Component) {
	return func(c *uidex.Component) { c.Tags = tags }
}

func withDescription(d string) func(*uidex.Component) {
	return func(c *uidex.Component) { c.Description = d }
}

func withViews(n int) func(*uidex.Component) {
	return func(c *uidex.Component) { c.Views = n }
}

func withSource(id string) func(*uidex.Component) {
	return func(c *uidex.Component) { c.SourceID = id }
}

var sourceSlugs = map[string]string{"s1": "aceternity-ui", "s2": "magic-ui"}

func names(hits []uidex.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Component.Name
	}
	return out
}

func TestSnapshot_Search_Ranking(t *testing.T) {
	t.Parallel()

	t.Run("name matches outrank tag matches", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Card", withTags("button")),
			component("b", "Animated Button"),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "button"})
		require.Equal(t, []string{"Animated Button", "Card"}, names(result.Hits))
		assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
	})

	t.Run("name matches outrank description matches", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Card", withDescription("a button-like card")),
			component("b", "Button"),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "button"})
		require.Equal(t, []string{"Button", "Card"}, names(result.Hits))
	})

	t.Run("exact term beats substring match", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Buttons"),
			component("b", "Button"),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "button"})
		require.Equal(t, []string{"Button", "Buttons"}, names(result.Hits))
	})

	t.Run("fuzzy matches within one edit", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Button"),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "buttn"})
		require.Equal(t, []string{"Button"}, names(result.Hits))
	})

	t.Run("short terms never match fuzzily", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "cat"),
		}, sourceSlugs)

		// "car" is one edit from "cat" but below the fuzzy length floor.
		result := snapshot.Search(uidex.SearchQuery{Text: "car"})
		assert.Empty(t, result.Hits)
	})

	t.Run("multi-term queries accumulate per term", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Animated Button"),
			component("b", "Button"),
			component("c", "Animated Card"),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "animated button"})
		require.Equal(t, "Animated Button", result.Hits[0].Component.Name)
	})

	t.Run("score ties break by views then name", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Button Zeta"),
			component("b", "Button Alpha"),
			component("c", "Button Popular", withViews(10)),
		}, sourceSlugs)

		result := snapshot.Search(uidex.SearchQuery{Text: "button"})
		assert.Equal(t, []string{"Button Popular", "Button Alpha", "Button Zeta"}, names(result.Hits))
	})

	t.Run("ranking is deterministic across runs", func(t *testing.T) {
		t.Parallel()

		snapshot := search.Build([]*uidex.Component{
			component("a", "Button Grid"),
			component("b", "Button Group"),
			component("c", "Button Gallery"),
		}, sourceSlugs)

		first := snapshot.Search(uidex.SearchQuery{Text: "button"})
		for i := 0; i < 10; i++ {
			again := snapshot.Search(uidex.SearchQuery{Text: "button"})
			require.Equal(t, names(first.Hits), names(again.Hits))
		}
	})
}

func TestSnapshot_Search_Filters(t *testing.T) {
	t.Parallel()

	components := []*uidex.Component{
		component("a", "Button", withSource("s1"), withTags("Form")),
		component("b", "Gradient Button", withSource("s2")),
	}
	snapshot := search.Build(components, sourceSlugs)

	t.Run("source filter", func(t *testing.T) {
		t.Parallel()

		result := snapshot.Search(uidex.SearchQuery{Text: "button", SourceSlug: "magic-ui"})
		assert.Equal(t, []string{"Gradient Button"}, names(result.Hits))
	})

	t.Run("tag filter is case-insensitive", func(t *testing.T) {
		t.Parallel()

		result := snapshot.Search(uidex.SearchQuery{Text: "button", Tag: "form"})
		assert.Equal(t, []string{"Button"}, names(result.Hits))
	})

	t.Run("limit truncates hits but not total", func(t *testing.T) {
		t.Parallel()

		result := snapshot.Search(uidex.SearchQuery{Text: "button", Limit: 1})
		assert.Len(t, result.Hits, 1)
		assert.Equal(t, 2, result.Total)
	})
}

func TestBuild_SkipsInactive(t *testing.T) {
	t.Parallel()

	inactive := component("a", "Button")
	inactive.IsActive = false

	snapshot := search.Build([]*uidex.Component{
		inactive,
		component("b", "Button Active"),
	}, sourceSlugs)

	assert.Equal(t, 1, snapshot.Len())
	result := snapshot.Search(uidex.SearchQuery{Text: "button"})
	assert.Equal(t, []string{"Button Active"}, names(result.Hits))
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	t.Run("rejects queries below the minimum length", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		_, err := index.Search(context.Background(), uidex.SearchQuery{Text: "x"})
		require.Error(t, err)
		assert.Equal(t, uidex.EINVALID, uidex.ErrorCode(err))
	})

	t.Run("serves empty results before the first snapshot", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		result, err := index.Search(context.Background(), uidex.SearchQuery{Text: "button"})
		require.NoError(t, err)
		assert.Empty(t, result.Hits)
		assert.Zero(t, result.Total)
	})

	t.Run("serves the swapped snapshot", func(t *testing.T) {
		t.Parallel()

		index := search.NewIndex()
		index.Swap(search.Build([]*uidex.Component{component("a", "Button")}, sourceSlugs))

		result, err := index.Search(context.Background(), uidex.SearchQuery{Text: "button"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Button"}, names(result.Hits))
	})
}
