package executor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/scrape"
	"github.com/sells-group/institution-research/pkg/anthropic"
	"github.com/sells-group/institution-research/pkg/jina"
	"github.com/sells-group/institution-research/pkg/perplexity"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPerplexity struct {
	mock.Mock
}

func (m *mockPerplexity) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*perplexity.ChatCompletionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJina struct {
	mock.Mock
}

func (m *mockJina) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if r := args.Get(0); r != nil {
		return r.(*jina.ReadResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJina) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if r := args.Get(0); r != nil {
		return r.(*jina.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPages struct {
	mock.Mock
}

func (m *mockPages) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []scrape.Result {
	args := m.Called(ctx, urls, maxConcurrent)
	return args.Get(0).([]scrape.Result)
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, item model.WorkItem) (*Response, error) {
	args := m.Called(ctx, item)
	if r := args.Get(0); r != nil {
		return r.(*Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockExecutor) Name() string { return "mock" }
