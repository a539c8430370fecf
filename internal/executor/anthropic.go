package executor

import (
	"context"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/pkg/anthropic"
)

// Anthropic answers work items with Claude, grounding each prompt with Jina
// search results and scraped pages.
type Anthropic struct {
	client    anthropic.Client
	gatherer  *Gatherer
	model     string
	maxTokens int64
}

// NewAnthropic creates a Claude-backed executor. gatherer may be nil.
func NewAnthropic(client anthropic.Client, gatherer *Gatherer, model string, maxTokens int64) *Anthropic {
	return &Anthropic{client: client, gatherer: gatherer, model: model, maxTokens: maxTokens}
}

// Name implements Executor.
func (a *Anthropic) Name() string { return cost.ProviderAnthropic }

// Execute implements Executor.
func (a *Anthropic) Execute(ctx context.Context, item model.WorkItem) (*Response, error) {
	var g Gathered
	if a.gatherer != nil {
		g = a.gatherer.Gather(ctx, item)
	}

	temp := 0.2
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      item.System,
		Messages:    []anthropic.Message{{Role: "user", Content: withContext(item.Prompt, g)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Text: resp.Text(),
		Usage: cost.Usage{
			Provider:     cost.ProviderAnthropic,
			Model:        a.model,
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			JinaTokens:   g.Tokens,
			Queries:      1,
		},
		Sources: g.Sources,
	}, nil
}
