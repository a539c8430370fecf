// Package firecrawl provides a single-page scrape client for the Firecrawl API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/institution-research/internal/resilience"
)

const defaultBaseURL = "https://api.firecrawl.dev/v2"

// Client defines the Firecrawl operations used for page fallback.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
}

// ScrapeRequest is the body for POST /scrape.
type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	// Timeout is the server-side page timeout in milliseconds.
	Timeout int `json:"timeout,omitempty"`
}

// ScrapeResponse is the response from POST /scrape.
type ScrapeResponse struct {
	Success bool     `json:"success"`
	Data    PageData `json:"data"`
}

// PageData is the scraped page.
type PageData struct {
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata"`
}

// Metadata describes the scraped page.
type Metadata struct {
	Title      string `json:"title"`
	SourceURL  string `json:"sourceURL"`
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
}

// APIError is returned when Firecrawl responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Firecrawl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	if len(req.Formats) == 0 {
		req.Formats = []string{"markdown"}
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	var out ScrapeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "firecrawl: decode response")
	}
	return &out, nil
}
