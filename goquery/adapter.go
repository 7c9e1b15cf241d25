// Package goquery provides a selector-configured uidex.SourceAdapter for
// server-rendered component registries. Site-specific adapters that need
// more than CSS selectors implement uidex.SourceAdapter directly.
package goquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/uidex"
	"github.com/microcosm-cc/bluemonday"
)

// Config describes how to crawl one source with CSS selectors.
type Config struct {
	// BaseURL is the site root, used to resolve relative links.
	BaseURL string

	// ListURL is the listing page enumerating components. Ignored when
	// SitemapURL is set.
	ListURL string

	// SitemapURL, when set, lists detail pages via sitemap.xml instead of
	// scraping ListURL.
	SitemapURL string

	// DetailPathPrefix filters sitemap entries to component detail pages.
	DetailPathPrefix string

	// ListItemSelector matches anchor elements on the listing page.
	ListItemSelector string

	// Detail page selectors. DescriptionSelector may be empty, in which
	// case the fallback extractor supplies the description.
	NameSelector        string
	DescriptionSelector string
	CodeSelector        string
	TagSelector         string
	DependencySelector  string
	VariantSelector     string
}

// Ensure Adapter implements uidex.SourceAdapter at compile time.
var _ uidex.SourceAdapter = (*Adapter)(nil)

// Adapter crawls one source site per its selector configuration.
type Adapter struct {
	fetcher   uidex.Fetcher
	converter uidex.Converter
	extractor uidex.Extractor // optional description fallback
	sanitizer *bluemonday.Policy
	config    Config
}

// NewAdapter creates an Adapter. converter and extractor may be nil; without
// a converter descriptions keep their text content, without an extractor
// sources lacking a description selector produce empty descriptions.
func NewAdapter(fetcher uidex.Fetcher, converter uidex.Converter, extractor uidex.Extractor, config Config) *Adapter {
	return &Adapter{
		fetcher:   fetcher,
		converter: converter,
		extractor: extractor,
		sanitizer: bluemonday.UGCPolicy(),
		config:    config,
	}
}

// List enumerates the candidate items the source currently offers.
func (a *Adapter) List(ctx context.Context) ([]uidex.ItemRef, error) {
	if a.config.SitemapURL != "" {
		return a.listFromSitemap(ctx)
	}

	html, err := a.fetcher.Fetch(ctx, a.config.ListURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, uidex.Errorf(uidex.EUNAVAILABLE, "failed to parse listing page: %v", err)
	}

	base, err := url.Parse(a.config.BaseURL)
	if err != nil {
		return nil, uidex.Errorf(uidex.EINVALID, "invalid base URL: %v", err)
	}

	var refs []uidex.ItemRef
	doc.Find(a.config.ListItemSelector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}
		detailURL := resolveURL(base, href)
		if detailURL == "" {
			return
		}
		refs = append(refs, uidex.ItemRef{
			Slug:      slugFromURL(detailURL),
			DetailURL: detailURL,
		})
	})

	return refs, nil
}

// FetchDetail retrieves and extracts the full raw item for one listing entry.
func (a *Adapter) FetchDetail(ctx context.Context, ref uidex.ItemRef) (*uidex.RawItem, error) {
	html, err := a.fetcher.Fetch(ctx, ref.DetailURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, uidex.Errorf(uidex.EUNAVAILABLE, "failed to parse detail page: %v", err)
	}

	raw := &uidex.RawItem{
		Slug:         ref.Slug,
		SourceURL:    ref.DetailURL,
		Name:         strings.TrimSpace(doc.Find(a.config.NameSelector).First().Text()),
		Code:         doc.Find(a.config.CodeSelector).First().Text(),
		Tags:         selectTexts(doc, a.config.TagSelector),
		Dependencies: selectTexts(doc, a.config.DependencySelector),
		Variants:     selectTexts(doc, a.config.VariantSelector),
	}
	raw.Description = a.description(doc, html)

	return raw, nil
}

// description resolves the item description: configured selector first,
// fallback extractor second. The HTML is sanitized before conversion so
// script and style payloads never reach the catalog.
func (a *Adapter) description(doc *goquery.Document, pageHTML string) string {
	var descHTML string
	if a.config.DescriptionSelector != "" {
		descHTML, _ = doc.Find(a.config.DescriptionSelector).First().Html()
	} else if a.extractor != nil {
		if result, err := a.extractor.Extract(pageHTML); err == nil {
			descHTML = result.ContentHTML
		}
	}
	if descHTML == "" {
		return ""
	}

	descHTML = a.sanitizer.Sanitize(descHTML)
	if a.converter == nil {
		return strings.TrimSpace(descHTML)
	}

	markdown, err := a.converter.Convert(descHTML)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}

// selectTexts returns the trimmed text of every element matching selector.
func selectTexts(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// resolveURL resolves href against base, returning "" for unusable links.
func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// slugFromURL derives an item slug from the last path segment.
func slugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx != -1 {
		path = path[idx+1:]
	}
	return path
}
