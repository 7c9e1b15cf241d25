package main

import (
	"github.com/fwojciec/uidex"
	uigoquery "github.com/fwojciec/uidex/goquery"
)

// adapterConfigs holds the selector configuration for the known sources.
// New registries that fit the selector model are added here; sites needing
// custom logic implement uidex.SourceAdapter directly and register below.
var adapterConfigs = map[string]uigoquery.Config{
	"aceternity-ui": {
		BaseURL:             "https://ui.aceternity.com",
		SitemapURL:          "https://ui.aceternity.com/sitemap.xml",
		DetailPathPrefix:    "/components/",
		NameSelector:        "h1",
		DescriptionSelector: "h1 + p",
		CodeSelector:        "pre code",
		TagSelector:         "[data-tag]",
	},
	"magic-ui": {
		BaseURL:          "https://magicui.design",
		ListURL:          "https://magicui.design/docs/components",
		ListItemSelector: "a[href^='/docs/components/']",
		NameSelector:     "h1",
		CodeSelector:     "pre code",
		TagSelector:      ".badge",
	},
}

// registerAdapters installs one adapter per known source into the registry.
func registerAdapters(registry uidex.AdapterRegistry, fetcher uidex.Fetcher, converter uidex.Converter, extractor uidex.Extractor) {
	for slug, cfg := range adapterConfigs {
		registry.Register(slug, uigoquery.NewAdapter(fetcher, converter, extractor, cfg))
	}
}
