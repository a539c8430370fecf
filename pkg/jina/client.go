// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/institution-research/internal/resilience"
)

// Client defines the Jina AI Reader and Search operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the markdown content.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search performs a web search via Jina AI Search and returns results.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed Jina API response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content from Jina.
type ReadData struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the parsed Jina Search API response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
	Meta SearchMeta     `json:"meta"`
}

// SearchMeta carries request-level metadata.
type SearchMeta struct {
	Usage Usage `json:"usage"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Usage       Usage  `json:"usage"`
}

// Tokens sums the tokens billed for the search.
func (r *SearchResponse) Tokens() int {
	if r.Meta.Usage.Tokens > 0 {
		return r.Meta.Usage.Tokens
	}
	total := 0
	for _, d := range r.Data {
		total += d.Usage.Tokens
	}
	return total
}

// SearchOption configures a search request.
type SearchOption func(url.Values)

// WithCountry biases results to a two-letter country code.
func WithCountry(code string) SearchOption {
	return func(v url.Values) { setIf(v, "gl", code) }
}

// WithLanguage sets the result language, e.g. "en".
func WithLanguage(lang string) SearchOption {
	return func(v url.Values) { setIf(v, "hl", lang) }
}

// WithNum caps the number of results.
func WithNum(n int) SearchOption {
	return func(v url.Values) {
		if n > 0 {
			v.Set("num", strconv.Itoa(n))
		}
	}
}

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(v url.Values) { setIf(v, "site", domain) }
}

func setIf(v url.Values, key, val string) {
	if strings.TrimSpace(val) != "" {
		v.Set(key, val)
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSearchBaseURL sets a custom search base URL (for testing).
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) {
		c.searchBaseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
	retry         resilience.RetryConfig
}

// NewClient creates a new Jina AI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     8 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET, retrying transport failures and retryable statuses.
// Non-retryable statuses are returned to the caller with the body.
func (c *httpClient) get(ctx context.Context, reqURL, op string, headers map[string]string) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}

	retry := c.retry
	retry.OnRetry = resilience.RetryLogger("jina", op)

	res, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return result{}, eris.Wrap(err, "jina: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return result{}, eris.Wrap(err, "jina: "+op)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, resilience.NewTransientError(eris.Wrap(err, "jina: read response body"), resp.StatusCode)
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return result{}, resilience.StatusError("jina", resp.StatusCode, string(body))
		}
		return result{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	body, status, err := c.get(ctx, c.baseURL+"/"+targetURL, "read", map[string]string{
		"X-Return-Format": "markdown",
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, resilience.StatusError("jina", status, string(body))
	}

	var result ReadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	for _, opt := range opts {
		opt(params)
	}

	body, status, err := c.get(ctx, c.searchBaseURL+"/?"+params.Encode(), "search", nil)
	if err != nil {
		return nil, err
	}

	// Jina returns 422 when no results are available for the query.
	if status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: status}, nil
	}
	if status != http.StatusOK {
		return nil, resilience.StatusError("jina", status, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}
	return &result, nil
}
