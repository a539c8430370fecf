package scrape

import "context"

// Page is the readable content of a single web page.
type Page struct {
	URL        string
	Title      string
	Markdown   string
	StatusCode int
	// FinalURL is set when the request was redirected.
	FinalURL string
	// Tokens is the metered size reported by a paid reader, if any.
	Tokens int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "jina", "firecrawl", "local_http"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
