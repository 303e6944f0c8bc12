package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniroute/omniroute/internal/provider/resilience"
)

func fastConfig(name string) resilience.ExecutorConfig {
	cfg := resilience.DefaultExecutorConfig(name)
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	return cfg
}

func TestExecutor_Success(t *testing.T) {
	executor := resilience.NewExecutor(fastConfig("test"))

	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, gobreaker.StateClosed, executor.CircuitBreakerState())
}

func TestExecutor_RetriesTransientErrors(t *testing.T) {
	executor := resilience.NewExecutor(fastConfig("test"))

	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_PermanentErrorNotRetried(t *testing.T) {
	errBadInput := errors.New("bad input")

	cfg := fastConfig("test")
	cfg.IsRetryable = func(err error) bool {
		return !errors.Is(err, errBadInput)
	}
	executor := resilience.NewExecutor(cfg)

	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return errBadInput
	})

	assert.ErrorIs(t, err, errBadInput)
	assert.Equal(t, 1, calls)
}

func TestExecutor_ExhaustsRetries(t *testing.T) {
	cfg := fastConfig("test")
	cfg.MaxRetries = 2
	executor := resilience.NewExecutor(cfg)

	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("still failing")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt plus two retries
}

func TestExecutor_CircuitOpens(t *testing.T) {
	cfg := fastConfig("test")
	cfg.MaxRetries = 1
	cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{
		Name:        "test",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= 2
		},
	}
	executor := resilience.NewExecutor(cfg)

	failing := func(context.Context) error { return errors.New("down") }

	// First call trips the breaker (initial attempt + retry = 2 failures).
	require.Error(t, executor.Execute(context.Background(), failing))
	assert.Equal(t, gobreaker.StateOpen, executor.CircuitBreakerState())

	// With the circuit open the operation never runs.
	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	executor := resilience.NewExecutor(fastConfig("test"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Execute(ctx, func(context.Context) error {
		return errors.New("should not matter")
	})
	require.Error(t, err)
}
