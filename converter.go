package uidex

// Converter transforms HTML content into Markdown.
type Converter interface {
	Convert(html string) (markdown string, err error)
}

// Extractor pulls the main descriptive content out of a full HTML page.
// Used by adapters when a site exposes no stable description selector.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// ExtractResult holds content extracted from an HTML page.
type ExtractResult struct {
	Title       string
	ContentHTML string
}
