package executor

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/resilience"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini executor.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Gemini answers work items with Gemini grounded by Google Search and URL
// Context tools.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini-backed executor.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("executor: gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, eris.New("executor: gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "executor: create gemini client")
	}
	return &Gemini{models: client.Models, model: strings.TrimSpace(cfg.Model)}, nil
}

// Name implements Executor.
func (g *Gemini) Name() string { return cost.ProviderGemini }

// Execute implements Executor.
func (g *Gemini) Execute(ctx context.Context, item model.WorkItem) (*Response, error) {
	prompt := item.Prompt
	if len(item.URLs) > 0 {
		prompt += "\n\nPages to check:\n- " + strings.Join(item.URLs, "\n- ")
	}

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
			{URLContext: &genai.URLContext{}},
		},
		CandidateCount: 1,
	}
	if item.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(item.System, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, classifyGeminiErr(err)
	}

	out := &Response{
		Text:    resp.Text(),
		Usage:   cost.Usage{Provider: cost.ProviderGemini, Model: g.model, Queries: 1},
		Sources: groundingSources(resp),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage.InputTokens = int(u.PromptTokenCount)
		out.Usage.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// classifyGeminiErr marks rate limits, server errors and network timeouts as
// transient.
func classifyGeminiErr(err error) error {
	if err == nil {
		return nil
	}
	wrapped := eris.Wrap(err, "gemini: generate content")

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return resilience.NewTransientError(wrapped, apiErr.Code)
		}
		return wrapped
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return resilience.NewTransientError(wrapped, 0)
	}
	return wrapped
}

// groundingSources lists the web pages Gemini consulted, in order, without
// repeats.
func groundingSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]

	var urls []string
	if c.GroundingMetadata != nil {
		for _, chunk := range c.GroundingMetadata.GroundingChunks {
			if chunk != nil && chunk.Web != nil {
				urls = append(urls, chunk.Web.URI)
			}
		}
	}
	if c.URLContextMetadata != nil {
		for _, m := range c.URLContextMetadata.URLMetadata {
			if m != nil {
				urls = append(urls, m.RetrievedURL)
			}
		}
	}

	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if _, dup := seen[u]; u == "" || dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
