package aggregator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/traffic"
	"github.com/omniroute/omniroute/internal/transit"
)

// ServiceConfig holds configuration for the aggregation service.
type ServiceConfig struct {
	// Provider is the route aggregation backend.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Traffic supplies live congestion context for prompts (optional).
	Traffic *traffic.Service

	// Connectivity is notified of provider reachability changes (optional).
	Connectivity *connectivity.Monitor

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Timeout bounds each provider attempt (default: 30s).
	Timeout time.Duration

	// MaxRetries for transient provider failures (default: 2).
	MaxRetries uint64
}

// Service wraps a Provider with request validation, traffic context,
// response validation, and retry/circuit breaker protection.
type Service struct {
	provider     Provider
	logger       zerolog.Logger
	traffic      *traffic.Service
	connectivity *connectivity.Monitor
	registry     *resilience.Registry
	executor     *resilience.Executor
}

// NewService creates a new aggregation service.
func NewService(cfg ServiceConfig) *Service {
	execCfg := resilience.DefaultExecutorConfig("aggregator:" + cfg.Provider.Name())
	if cfg.Timeout > 0 {
		execCfg.Timeout = cfg.Timeout
	}
	execCfg.MaxRetries = 2
	if cfg.MaxRetries > 0 {
		execCfg.MaxRetries = cfg.MaxRetries
	}
	execCfg.IsRetryable = func(err error) bool {
		var aggErr *Error
		if errors.As(err, &aggErr) {
			return aggErr.IsRetryable()
		}
		return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
	}
	execCfg.Registry = cfg.Registry

	return &Service{
		provider:     cfg.Provider,
		logger:       cfg.Logger,
		traffic:      cfg.Traffic,
		connectivity: cfg.Connectivity,
		registry:     cfg.Registry,
		executor:     resilience.NewExecutor(execCfg),
	}
}

// SmartRoutes generates validated travel options for the request.
// Traffic feed failures degrade to an empty context rather than failing
// the search.
func (s *Service) SmartRoutes(ctx context.Context, req transit.RouteRequest) ([]transit.TravelOption, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	summary := "no traffic data available"
	if s.traffic != nil {
		zones, err := s.traffic.CityTraffic(ctx, req.City)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("city", req.City).
				Msg("traffic feed unavailable, generating routes without it")
		} else {
			summary = traffic.Summary(zones)
		}
	}

	var options []transit.TravelOption
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		opts, err := s.provider.SmartRoutes(ctx, req, summary)
		if err != nil {
			return classify(s.provider.Name(), err)
		}
		validated, err := ValidateOptions(s.provider.Name(), opts)
		if err != nil {
			return err
		}
		options = validated
		return nil
	})

	if err != nil {
		s.markConnectivity(err)
		s.recordFailure(err)
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Str("city", req.City).
			Msg("route aggregation failed")
		return nil, err
	}

	if s.connectivity != nil {
		s.connectivity.SetOnline(true)
	}
	s.recordSuccess()
	s.logger.Info().
		Str("provider", s.provider.Name()).
		Str("city", req.City).
		Int("option_count", len(options)).
		Msg("generated travel options")
	return options, nil
}

// ParseQuery extracts request fields from free text. Parsing is best
// effort: any provider failure yields an empty partial, never an error.
func (s *Service) ParseQuery(ctx context.Context, query string) transit.PartialRouteRequest {
	query = strings.TrimSpace(query)
	if query == "" {
		return transit.PartialRouteRequest{}
	}

	partial, err := s.provider.ParseQuery(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("natural query parse failed, ignoring")
		return transit.PartialRouteRequest{}
	}
	if partial.Preference != "" && !transit.ValidPreference(partial.Preference) {
		partial.Preference = ""
	}
	return partial
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func (s *Service) markConnectivity(err error) {
	if s.connectivity == nil {
		return
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, resilience.ErrCircuitOpen) {
		s.connectivity.SetOnline(false)
	}
}

func (s *Service) recordSuccess() {
	if s.registry != nil {
		s.registry.RecordSuccess(s.executor.Name())
	}
}

func (s *Service) recordFailure(err error) {
	if s.registry != nil {
		s.registry.RecordFailure(s.executor.Name(), err)
	}
}

// classify maps transport-level failures onto the error taxonomy.
func classify(provider string, err error) error {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Provider: provider,
			Code:     "TIMEOUT",
			Message:  "provider call timed out",
			Err:      ErrTimeout,
		}
	}
	return &Error{
		Provider: provider,
		Code:     "NETWORK_ERROR",
		Message:  "provider call failed",
		Err:      errors.Join(ErrUnavailable, err),
	}
}
