// Package perplexity provides a chat completions client for the Perplexity
// Sonar API, which answers with live web search.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/institution-research/internal/resilience"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar-pro"
)

// Client performs chat completions against the Perplexity API.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// ChatCompletionRequest is the request body for POST /chat/completions.
type ChatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	Temperature      *float64          `json:"temperature,omitempty"`
	MaxTokens        *int              `json:"max_tokens,omitempty"`
	WebSearchOptions *WebSearchOptions `json:"web_search_options,omitempty"`
	// SearchDomainFilter restricts (or with a "-" prefix, excludes) domains.
	SearchDomainFilter []string `json:"search_domain_filter,omitempty"`
	// SearchRecencyFilter is "day", "week", "month" or "year".
	SearchRecencyFilter string `json:"search_recency_filter,omitempty"`
}

// WebSearchOptions tunes the web search that grounds the completion.
type WebSearchOptions struct {
	// SearchContextSize is "low", "medium" or "high".
	SearchContextSize string        `json:"search_context_size,omitempty"`
	UserLocation      *UserLocation `json:"user_location,omitempty"`
}



// UserLocation biases search results to a country.
type UserLocation struct {
	Country string `json:"country,omitempty"`
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the response from POST /chat/completions.
type ChatCompletionResponse struct {
	ID        string   `json:"id"`
	Model     string   `json:"model"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	Citations []string `json:"citations"`
	// SearchResults supersedes Citations on newer API versions.
	SearchResults []SearchResult `json:"search_results"`
}

// SearchResult is a page the answer was grounded on.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// Sources returns the cited URLs, search results first, without duplicates.
func (r *ChatCompletionResponse) Sources() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.SearchResults)+len(r.Citations))
	var out []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	for _, sr := range r.SearchResults {
		add(sr.URL)
	}
	for _, c := range r.Citations {
		add(c)
	}
	return out
}

// Text returns the content of the first choice.
func (r *ChatCompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice is a single completion choice.
type Choice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a Perplexity API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: 180 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, resilience.NewTransientError(eris.Wrap(err, "perplexity: send request"), 0)
		}
		return nil, eris.Wrap(err, "perplexity: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("perplexity", resp.StatusCode, string(respBody))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "perplexity: unmarshal response")
	}
	if len(result.Choices) == 0 {
		return nil, eris.Errorf("perplexity: response %s has no choices", result.ID)
	}

	return &result, nil
}
