package goquery

import (
	"context"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/uidex"
)

// listFromSitemap enumerates detail pages from the source's sitemap.xml,
// keeping entries under the configured detail path prefix.
func (a *Adapter) listFromSitemap(ctx context.Context) ([]uidex.ItemRef, error) {
	body, err := a.fetcher.Fetch(ctx, a.config.SitemapURL)
	if err != nil {
		return nil, err
	}

	locs, err := parseSitemapLocs(body)
	if err != nil {
		return nil, err
	}

	var refs []uidex.ItemRef
	for _, loc := range locs {
		if a.config.DetailPathPrefix != "" && !strings.Contains(loc, a.config.DetailPathPrefix) {
			continue
		}
		slug := slugFromURL(loc)
		if slug == "" {
			continue
		}
		refs = append(refs, uidex.ItemRef{Slug: slug, DetailURL: loc})
	}

	return refs, nil
}

// parseSitemapLocs extracts <loc> values from a sitemap urlset document.
func parseSitemapLocs(body string) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return nil, uidex.Errorf(uidex.EUNAVAILABLE, "failed to parse sitemap: %v", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "urlset" {
		return nil, uidex.Errorf(uidex.EUNAVAILABLE, "sitemap has no urlset root")
	}

	var locs []string
	for _, urlEl := range root.SelectElements("url") {
		if locEl := urlEl.SelectElement("loc"); locEl != nil {
			if loc := strings.TrimSpace(locEl.Text()); loc != "" {
				locs = append(locs, loc)
			}
		}
	}

	return locs, nil
}
