package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/scrape"
	"github.com/sells-group/institution-research/pkg/anthropic"
	"github.com/sells-group/institution-research/pkg/jina"
)

func detailItem() model.WorkItem {
	return model.WorkItem{
		Kind:    model.WorkKindDetail,
		Subject: "TNO",
		Query:   "TNO careers",
		URLs:    []string{"https://www.tno.nl"},
		System:  "You are a research assistant.",
		Prompt:  "Describe TNO.",
	}
}

func TestAnthropic_ExecuteWithContext(t *testing.T) {
	t.Parallel()

	search := &mockJina{}
	search.On("Search", mock.Anything, "TNO careers").Return(&jina.SearchResponse{
		Code: 200,
		Data: []jina.SearchResult{{Title: "Careers at TNO", URL: "https://www.tno.nl/en/careers", Description: "Vacancies"}},
		Meta: jina.SearchMeta{Usage: jina.Usage{Tokens: 120}},
	}, nil)

	pages := &mockPages{}
	pages.On("ScrapeAll", mock.Anything, []string{"https://www.tno.nl"}, 2).Return([]scrape.Result{{
		Page:   scrape.Page{URL: "https://www.tno.nl", Markdown: "TNO is an applied research organisation.", StatusCode: 200, Tokens: 80},
		Source: "jina",
	}})

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.System == "You are a research assistant." &&
			req.Model == "claude-test" &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			containsAll(req.Messages[0].Content, "Describe TNO.", "Careers at TNO", "applied research organisation")
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"name":"TNO"}`}},
		Usage:   anthropic.TokenUsage{InputTokens: 1000, OutputTokens: 50},
	}, nil)

	g := &Gatherer{Search: search, Pages: pages, Hint: SearchHint{Country: "GB", Language: "en", Results: 10}, ContextChars: 500}
	ex := NewAnthropic(client, g, "claude-test", 1024)

	resp, err := ex.Execute(context.Background(), detailItem())
	require.NoError(t, err)
	assert.Equal(t, `{"name":"TNO"}`, resp.Text)
	assert.Equal(t, cost.Usage{
		Provider: cost.ProviderAnthropic, Model: "claude-test",
		InputTokens: 1000, OutputTokens: 50, JinaTokens: 200, Queries: 1,
	}, resp.Usage)
	assert.Equal(t, []string{"https://www.tno.nl/en/careers", "https://www.tno.nl"}, resp.Sources)
	assert.Equal(t, "anthropic", ex.Name())

	client.AssertExpectations(t)
	search.AssertExpectations(t)
	pages.AssertExpectations(t)
}

func TestAnthropic_SearchFailureStillAnswers(t *testing.T) {
	t.Parallel()

	search := &mockJina{}
	search.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("jina down"))

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Messages[0].Content == "Describe TNO."
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "delete"}},
	}, nil)

	item := detailItem()
	item.URLs = nil
	ex := NewAnthropic(client, &Gatherer{Search: search}, "claude-test", 1024)

	resp, err := ex.Execute(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "delete", resp.Text)
	assert.Zero(t, resp.Usage.JinaTokens)
}

func TestAnthropic_ErrorPassesThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad request")
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := NewAnthropic(client, nil, "claude-test", 1024).Execute(context.Background(), detailItem())
	assert.ErrorIs(t, err, boom)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 2))
	// "é" is two bytes; cutting inside it backs up to the rune start.
	assert.Equal(t, "a…", truncate("aé", 2))
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
