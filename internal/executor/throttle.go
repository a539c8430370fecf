package executor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/resilience"
)

// Throttled wraps an Executor with a shared rate limit, a per-call timeout
// and retries of transient failures.
type Throttled struct {
	next    Executor
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	timeout time.Duration
}

// ThrottleConfig configures Throttled.
type ThrottleConfig struct {
	// RPS is the sustained call rate across all workers. <= 0 disables limiting.
	RPS float64
	// MaxAttempts includes the first call.
	MaxAttempts int
	// Timeout bounds each call. <= 0 disables the per-call timeout.
	Timeout time.Duration
	// Retry overrides backoff timing; MaxAttempts still applies.
	Retry *resilience.RetryConfig
}

// NewThrottled wraps next.
func NewThrottled(next Executor, cfg ThrottleConfig) *Throttled {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry.WithAttempts(cfg.MaxAttempts),
		timeout: cfg.Timeout,
	}
}

// Name implements Executor.
func (t *Throttled) Name() string { return t.next.Name() }

// Execute implements Executor.
func (t *Throttled) Execute(ctx context.Context, item model.WorkItem) (*Response, error) {
	retry := t.retry
	retry.OnRetry = resilience.RetryLogger(t.next.Name(), item.FixtureKey())

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Response, error) {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if t.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		}
		defer cancel()

		start := time.Now()
		resp, err := t.next.Execute(callCtx, item)
		if err != nil {
			// A call that hit its own deadline is retried; a cancelled run is not.
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, resilience.NewTransientError(err, 0)
			}
			return nil, err
		}

		zap.L().Debug("executor: call complete",
			zap.String("executor", t.next.Name()),
			zap.String("key", item.FixtureKey()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("chars", len(resp.Text)),
		)
		return resp, nil
	})
}
