package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/executor"
	"github.com/sells-group/institution-research/internal/scrape"
	"github.com/sells-group/institution-research/pkg/anthropic"
	"github.com/sells-group/institution-research/pkg/firecrawl"
	"github.com/sells-group/institution-research/pkg/jina"
	"github.com/sells-group/institution-research/pkg/perplexity"
)

// initExecutor builds the executor selected by executor.provider. Network
// backends are wrapped with rate limiting, retries and a per-call timeout.
func initExecutor(ctx context.Context, c *config.Config, prefs *config.Preferences) (executor.Executor, error) {
	hint := executor.SearchHint{
		Country:  prefs.Country(),
		Language: prefs.Language(),
		Results:  prefs.MaxResultsPerSearch,
	}

	var backend executor.Executor
	switch c.Executor.Provider {
	case config.ProviderAnthropic:
		jinaClient := jina.NewClient(c.Jina.Key,
			jina.WithBaseURL(c.Jina.BaseURL),
			jina.WithSearchBaseURL(c.Jina.SearchBaseURL),
		)

		// Jina first, Firecrawl when configured, plain HTTP last.
		scrapers := []scrape.Scraper{scrape.NewJinaAdapter(jinaClient)}
		if c.Firecrawl.Key != "" {
			scrapers = append(scrapers, scrape.NewFirecrawlAdapter(
				firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL)),
			))
		} else {
			zap.L().Debug("firecrawl key not set, fallback scraper disabled")
		}
		scrapers = append(scrapers, scrape.NewLocalScraper())

		gatherer := &executor.Gatherer{
			Search:       jinaClient,
			Pages:        scrape.NewChain(scrapers...),
			Hint:         hint,
			ContextChars: c.Research.ContextChars,
		}
		backend = executor.NewAnthropic(anthropic.NewClient(c.Anthropic.Key), gatherer, c.Anthropic.Model, c.Anthropic.MaxTokens)

	case config.ProviderPerplexity:
		client := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)
		backend = executor.NewPerplexity(client, c.Perplexity.Model, hint)

	case config.ProviderGemini:
		g, err := executor.NewGemini(ctx, executor.GeminiConfig{
			APIKey:  c.Gemini.Key,
			Model:   c.Gemini.Model,
			BaseURL: c.Gemini.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		backend = g

	case config.ProviderFixture:
		fx, err := executor.LoadFixture(c.Executor.FixturePath)
		if err != nil {
			return nil, err
		}
		zap.L().Info("using fixture executor", zap.String("path", c.Executor.FixturePath))
		return fx, nil

	default:
		return nil, eris.Errorf("unknown executor provider %q", c.Executor.Provider)
	}

	zap.L().Info("research executor ready",
		zap.String("provider", backend.Name()),
		zap.Float64("rate_limit_rps", c.Executor.RateLimitRPS),
		zap.Int("max_attempts", c.Executor.MaxAttempts),
	)
	return executor.NewThrottled(backend, executor.ThrottleConfig{
		RPS:         c.Executor.RateLimitRPS,
		MaxAttempts: c.Executor.MaxAttempts,
		Timeout:     time.Duration(c.Executor.TimeoutSecs) * time.Second,
	}), nil
}
