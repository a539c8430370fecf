package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset timeout elapses.
	CircuitOpen
	// CircuitHalfOpen lets a single trial call through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before a trial call is allowed.
	ResetTimeout time.Duration
	// OnStateChange is called on every transition.
	OnStateChange func(from, to CircuitState)
	// IsFailure reports whether err counts against the service. Errors it
	// rejects are treated as a healthy response. Nil counts every error
	// except caller cancellation.
	IsFailure func(err error) bool
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// CircuitBreaker guards a single external service.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := ExecuteVal(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteVal is Execute for functions that return a value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !cb.allow() {
		return zero, ErrCircuitOpen
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != CircuitOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		cb.transition(CircuitHalfOpen)
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil || !cb.cfg.IsFailure(err) {
		cb.failures = 0
		if cb.state != CircuitClosed {
			cb.transition(CircuitClosed)
		}
		return
	}

	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		if cb.state != CircuitOpen {
			cb.transition(CircuitOpen)
		}
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}
