// Package analytics emits structured domain events and OpenTelemetry
// counters for searches, bookings and failures.
package analytics

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/omniroute/omniroute/internal/analytics"

// Service records domain events. Every event is logged and counted; there
// is no external analytics backend.
type Service struct {
	logger zerolog.Logger

	searchTotal  metric.Int64Counter
	bookingTotal metric.Int64Counter
	errorTotal   metric.Int64Counter
}

// NewService creates a new analytics service.
func NewService(logger zerolog.Logger) (*Service, error) {
	meter := otel.Meter(meterName)

	searchTotal, err := meter.Int64Counter(
		"app.route_search.total",
		metric.WithDescription("Total number of route searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, err
	}

	bookingTotal, err := meter.Int64Counter(
		"app.booking.total",
		metric.WithDescription("Total number of bookings"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, err
	}

	errorTotal, err := meter.Int64Counter(
		"app.error.total",
		metric.WithDescription("Total number of tracked application errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		logger:       logger,
		searchTotal:  searchTotal,
		bookingTotal: bookingTotal,
		errorTotal:   errorTotal,
	}, nil
}

// TrackRouteSearch records a route search event.
func (s *Service) TrackRouteSearch(ctx context.Context, source, destination, city string) {
	if s == nil {
		return
	}
	s.logger.Info().
		Str("event", "route_search").
		Str("source", source).
		Str("destination", destination).
		Str("city", city).
		Msg("analytics event")
	s.searchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("city", city),
	))
}

// TrackBooking records a completed or queued booking.
func (s *Service) TrackBooking(ctx context.Context, routeTitle string, cost float64, queued bool) {
	if s == nil {
		return
	}
	s.logger.Info().
		Str("event", "booking").
		Str("route_title", routeTitle).
		Float64("cost", cost).
		Bool("queued", queued).
		Msg("analytics event")
	s.bookingTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("queued", queued),
	))
}

// TrackError records a classified application error.
func (s *Service) TrackError(ctx context.Context, kind string, err error) {
	if s == nil {
		return
	}
	s.logger.Warn().
		Str("event", "error").
		Str("kind", kind).
		Err(err).
		Msg("analytics event")
	s.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
