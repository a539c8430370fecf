package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/resilience"
	"github.com/sells-group/institution-research/pkg/jina"
)

// minContentLen is the shortest Jina body treated as real content.
const minContentLen = 100

// JinaAdapter wraps a Jina Reader client as a Scraper with a circuit breaker.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter creates a JinaAdapter. Three consecutive failures open the
// circuit for a minute, sending every URL straight to the next scraper.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{
		client: client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
			// A missing or forbidden institution page says nothing about Jina itself.
			IsFailure: func(err error) bool {
				return resilience.IsTransient(err) || errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("scrape: jina circuit breaker state change",
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}),
	}
}

// Name implements Scraper.
func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a URL via Jina Reader and rejects empty or challenge pages.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	return resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*Result, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if reason := needsFallback(resp); reason != "" {
			return nil, eris.Errorf("jina: %s", reason)
		}
		return &Result{
			Page: Page{
				URL:        firstNonEmpty(resp.Data.URL, targetURL),
				Title:      resp.Data.Title,
				Markdown:   resp.Data.Content,
				StatusCode: resp.Code,
				Tokens:     resp.Data.Usage.Tokens,
			},
			Source: "jina",
		}, nil
	})
}

// needsFallback returns why a Jina response is unusable, or "" if it is fine.
func needsFallback(resp *jina.ReadResponse) string {
	if resp == nil {
		return "empty response"
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "upstream status"
	}
	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minContentLen {
		return "content too short"
	}
	if blocked, kind := DetectContentBlock(content); blocked {
		return "blocked page (" + string(kind) + ")"
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
