// Package resilience provides retry, circuit breaking and failure
// classification for calls to research executors and their tools.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with exponential backoff and jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// JitterFraction randomizes each delay by ±fraction.
	JitterFraction float64

	// ShouldRetry overrides IsTransient when set.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry policy used for executor calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// WithAttempts returns a copy of cfg with MaxAttempts set when n is positive.
func (cfg RetryConfig) WithAttempts(n int) RetryConfig {
	if n > 0 {
		cfg.MaxAttempts = n
	}
	return cfg
}

// Do executes fn, retrying transient failures according to cfg. Context
// cancellation stops retries immediately.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !shouldRetry(err) || attempt >= cfg.MaxAttempts {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(backoff(attempt-1, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func backoff(retry int, cfg RetryConfig) time.Duration {
	delay := math.Min(
		float64(cfg.InitialBackoff)*math.Pow(cfg.Multiplier, float64(retry)),
		float64(cfg.MaxBackoff),
	)
	if cfg.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * cfg.JitterFraction
	}
	return time.Duration(math.Max(delay, 0))
}

// RetryLogger returns an OnRetry callback that logs each retry of a call
// made on behalf of subject.
func RetryLogger(service, subject string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying call",
			zap.String("service", service),
			zap.String("subject", subject),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
