// Package traffic provides per-city congestion zone data for route planning.
package traffic

import (
	"context"
	"errors"

	"github.com/omniroute/omniroute/internal/transit"
)

// Trend describes how a zone's congestion is developing.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// Zone is a named city area with a congestion reading.
type Zone struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Density transit.TrafficStatus `json:"density"`
	Score   int                   `json:"score"` // 0 to 100, higher is worse
	Trend   Trend                 `json:"trend"`
}

// Provider supplies live congestion readings for a city.
type Provider interface {
	// CityTraffic returns the current zone readings for city.
	CityTraffic(ctx context.Context, city string) ([]Zone, error)

	// Name returns the provider's identifier for logging.
	Name() string
}

// ErrNoData is returned when a provider has no readings for a city.
var ErrNoData = errors.New("traffic: no data for city")
