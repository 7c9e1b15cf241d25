package crawl

import "github.com/fwojciec/uidex"

// dedupeRefs drops duplicate item references from one listing, keeping the
// first occurrence of each slug. Paginated sources commonly repeat items
// across pages. Membership is exact: a slug wrongly judged a duplicate
// would never be fetched and Finalize would soft-remove it as stale.
func dedupeRefs(refs []uidex.ItemRef) []uidex.ItemRef {
	if len(refs) < 2 {
		return refs
	}
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if _, dup := seen[ref.Slug]; dup {
			continue
		}
		seen[ref.Slug] = struct{}{}
		out = append(out, ref)
	}
	return out
}
