package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ExecutorConfig holds configuration for a resilient operation executor.
type ExecutorConfig struct {
	// Name identifies this executor for circuit breaker naming.
	Name string

	// Timeout bounds each individual attempt.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// IsRetryable decides whether an error is worth retrying.
	// If nil, every error is retried.
	IsRetryable func(error) bool

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives this executor for health reporting.
	// If nil, the executor is not registered.
	Registry *Registry
}

// DefaultExecutorConfig returns sensible defaults for the executor.
func DefaultExecutorConfig(name string) ExecutorConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ExecutorConfig{
		Name:            name,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Executor runs provider operations behind a circuit breaker with
// per-attempt timeouts and exponential backoff retries.
type Executor struct {
	circuitBreaker *gobreaker.CircuitBreaker[struct{}]
	config         ExecutorConfig
}

// NewExecutor creates a new resilient executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	var cb *gobreaker.CircuitBreaker[struct{}]
	if cfg.CircuitBreaker != nil {
		cb = NewCircuitBreaker[struct{}](*cfg.CircuitBreaker)
	} else {
		defaultCB := DefaultCircuitBreakerConfig(cfg.Name)
		cb = NewCircuitBreaker[struct{}](defaultCB)
	}

	e := &Executor{
		circuitBreaker: cb,
		config:         cfg,
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, e)
	}
	return e
}

// Name returns the executor's identifier.
func (e *Executor) Name() string {
	return e.config.Name
}

// Execute runs op with circuit breaker protection and retry logic.
// Each attempt gets its own timeout derived from ctx. Returns immediately
// with ErrCircuitOpen when the circuit breaker is open.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialInterval
	bo.MaxInterval = e.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	backoffWithRetries := backoff.WithMaxRetries(bo, e.config.MaxRetries)
	backoffWithContext := backoff.WithContext(backoffWithRetries, ctx)

	attempt := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		_, err := e.circuitBreaker.Execute(func() (struct{}, error) {
			return struct{}{}, op(attemptCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if e.config.IsRetryable != nil && !e.config.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	return backoff.Retry(attempt, backoffWithContext)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor) CircuitBreakerState() gobreaker.State {
	return e.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (e *Executor) CircuitBreakerCounts() gobreaker.Counts {
	return e.circuitBreaker.Counts()
}
