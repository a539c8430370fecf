package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/institution-research/pkg/firecrawl"
)

// firecrawlPageTimeoutMS bounds how long Firecrawl spends rendering one page.
const firecrawlPageTimeoutMS = 30000

// FirecrawlAdapter wraps a Firecrawl client as a Scraper. It is the fallback
// for sites that block the Jina reader.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports returns true; Firecrawl can attempt any URL.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches the main content of a URL. A page the site answered with an
// error status, an empty page and a challenge page are all errors.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		Timeout:         firecrawlPageTimeoutMS,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}

	meta := resp.Data.Metadata
	if meta.StatusCode >= 400 {
		return nil, eris.Errorf("firecrawl: %s returned status %d", targetURL, meta.StatusCode)
	}
	md := strings.TrimSpace(resp.Data.Markdown)
	if md == "" {
		return nil, eris.Errorf("firecrawl: %s has no content", targetURL)
	}
	if blocked, kind := DetectContentBlock(md); blocked {
		return nil, eris.Errorf("firecrawl: blocked (%s)", kind)
	}

	page := Page{
		URL:        targetURL,
		Title:      meta.Title,
		Markdown:   md,
		StatusCode: meta.StatusCode,
	}
	if final := firstNonEmpty(meta.URL, meta.SourceURL); final != "" && final != targetURL {
		page.FinalURL = final
	}
	return &Result{Page: page, Source: "firecrawl"}, nil
}
