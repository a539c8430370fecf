// Package scrape reads web pages for research context through an ordered
// chain of scrapers.
package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in the given order.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// NormalizeURL turns a model-supplied URL into an absolute http(s) URL.
// Bare hosts such as "tno.nl/careers" get an https scheme. Other schemes and
// unparsable values are errors.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("scrape: empty url")
	}
	// "tno.nl:8443/jobs" parses with scheme "tno.nl"; a dotted scheme is a host.
	if first, err := url.Parse(raw); err == nil && first.Scheme != "" && !strings.Contains(first.Scheme, ".") {
		if first.Scheme != "http" && first.Scheme != "https" {
			return "", eris.Errorf("scrape: unsupported scheme %q", first.Scheme)
		}
	} else {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: parse url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Errorf("scrape: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return "", eris.Errorf("scrape: no host in %q", raw)
	}
	u.Fragment = ""
	return u.String(), nil
}

// Scrape tries each scraper in order for a single URL.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	targetURL, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// ScrapeAll fetches urls with at most maxConcurrent requests in flight.
// Invalid and repeated URLs are dropped before fetching. Failed URLs are
// logged and skipped; the remaining pages keep input order.
func (c *Chain) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []Result {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	urls = uniqueURLs(urls)
	results := make([]*Result, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, u := range urls {
		g.Go(func() error {
			r, err := c.Scrape(gCtx, u)
			if err != nil {
				zap.L().Warn("scrape: page unavailable", zap.String("url", u), zap.Error(err))
				return nil
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(urls))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := NormalizeURL(raw)
		if err != nil {
			zap.L().Debug("scrape: skipping url", zap.String("url", raw), zap.Error(err))
			continue
		}
		key := strings.TrimSuffix(u, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}
