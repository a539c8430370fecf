package executor

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/pkg/perplexity"
)

// Perplexity answers work items with a Sonar model, which searches the web
// itself and returns its citations.
type Perplexity struct {
	client perplexity.Client
	model  string
	hint   SearchHint
}

// NewPerplexity creates a Perplexity-backed executor.
func NewPerplexity(client perplexity.Client, model string, hint SearchHint) *Perplexity {
	return &Perplexity{client: client, model: model, hint: hint}
}

// Name implements Executor.
func (p *Perplexity) Name() string { return cost.ProviderPerplexity }

// Execute implements Executor.
func (p *Perplexity) Execute(ctx context.Context, item model.WorkItem) (*Response, error) {
	var msgs []perplexity.Message
	if item.System != "" {
		msgs = append(msgs, perplexity.Message{Role: "system", Content: item.System})
	}
	msgs = append(msgs, perplexity.Message{Role: "user", Content: item.Prompt})

	req := perplexity.ChatCompletionRequest{
		Model:            p.model,
		Messages:         msgs,
		WebSearchOptions: &perplexity.WebSearchOptions{SearchContextSize: "high"},
	}
	if p.hint.Country != "" {
		req.WebSearchOptions.UserLocation = &perplexity.UserLocation{Country: p.hint.Country}
	}
	// Pages to check pin the search to their sites.
	req.SearchDomainFilter = domains(item.URLs)

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text: resp.Text(),
		Usage: cost.Usage{
			Provider:     cost.ProviderPerplexity,
			Model:        firstNonEmpty(resp.Model, p.model),
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			Queries:      1,
		},
		Sources: resp.Sources(),
	}, nil
}

// domains returns the distinct hosts of urls, without a "www." prefix. The API
// accepts at most 10 entries.
func domains(urls []string) []string {
	var out []string
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if !slices.Contains(out, host) {
			out = append(out, host)
		}
		if len(out) == 10 {
			break
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
