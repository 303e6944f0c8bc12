// Package aggregator turns route search requests into validated multimodal
// travel options via a generative route provider.
package aggregator

import (
	"context"
	"errors"

	"github.com/omniroute/omniroute/internal/transit"
)

// Sentinel errors for aggregation operations.
var (
	// ErrValidation indicates a malformed request or a provider response
	// that failed schema validation.
	ErrValidation = errors.New("response validation failed")
	// ErrUnavailable indicates the provider could not be reached.
	ErrUnavailable = errors.New("route provider unavailable")
	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrTimeout indicates the provider did not answer in time.
	ErrTimeout = errors.New("route provider timed out")
)

// Provider defines the interface for route aggregation backends.
type Provider interface {
	// SmartRoutes generates multimodal travel options for the request.
	// trafficSummary carries the live congestion feed as prompt context.
	SmartRoutes(ctx context.Context, req transit.RouteRequest, trafficSummary string) ([]transit.TravelOption, error)

	// ParseQuery extracts route request fields from free text.
	ParseQuery(ctx context.Context, query string) (transit.PartialRouteRequest, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from the aggregation provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrUnavailable) ||
		errors.Is(e.Err, ErrTimeout) ||
		errors.Is(e.Err, ErrEmptyResponse)
}
