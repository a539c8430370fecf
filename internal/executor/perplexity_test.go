package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/pkg/perplexity"
)

func TestPerplexity_Execute(t *testing.T) {
	t.Parallel()

	client := &mockPerplexity{}
	client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return req.Model == "sonar-pro" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == "system" &&
			req.Messages[1].Content == "Describe TNO." &&
			req.WebSearchOptions.SearchContextSize == "high" &&
			req.WebSearchOptions.UserLocation.Country == "GB"
	})).Return(&perplexity.ChatCompletionResponse{
		Model:     "sonar-pro",
		Choices:   []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: "[]"}}},
		Usage:     perplexity.Usage{PromptTokens: 40, CompletionTokens: 10},
		Citations: []string{"https://www.tno.nl"},
	}, nil)

	ex := NewPerplexity(client, "sonar-pro", SearchHint{Country: "GB"})
	resp, err := ex.Execute(context.Background(), detailItem())
	require.NoError(t, err)

	assert.Equal(t, "[]", resp.Text)
	assert.Equal(t, cost.Usage{
		Provider: cost.ProviderPerplexity, Model: "sonar-pro",
		InputTokens: 40, OutputTokens: 10, Queries: 1,
	}, resp.Usage)
	assert.Equal(t, []string{"https://www.tno.nl"}, resp.Sources)
	client.AssertExpectations(t)
}

func TestPerplexity_NoSystemNoCountry(t *testing.T) {
	t.Parallel()

	client := &mockPerplexity{}
	client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return len(req.Messages) == 1 && req.WebSearchOptions.UserLocation == nil && req.SearchDomainFilter == nil
	})).Return(&perplexity.ChatCompletionResponse{}, nil)

	item := detailItem()
	item.System = ""
	item.URLs = nil
	resp, err := NewPerplexity(client, "sonar", SearchHint{}).Execute(context.Background(), item)
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Equal(t, "sonar", resp.Usage.Model)
}

func TestPerplexity_DomainFilterFromURLs(t *testing.T) {
	t.Parallel()

	client := &mockPerplexity{}
	client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return assert.ObjectsAreEqual([]string{"tno.nl", "werkenbijtno.nl"}, req.SearchDomainFilter)
	})).Return(&perplexity.ChatCompletionResponse{
		SearchResults: []perplexity.SearchResult{{URL: "https://www.tno.nl/en/careers/"}},
		Citations:     []string{"https://www.tno.nl/en/careers/", "https://werkenbijtno.nl"},
	}, nil)

	item := detailItem()
	item.URLs = []string{"https://www.tno.nl", "https://www.tno.nl/en/careers/", "https://werkenbijtno.nl/vacatures", "not a url"}
	resp, err := NewPerplexity(client, "sonar", SearchHint{}).Execute(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.tno.nl/en/careers/", "https://werkenbijtno.nl"}, resp.Sources)
	client.AssertExpectations(t)
}
