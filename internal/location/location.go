// Package location resolves device coordinates to human-readable places.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for location lookups, mirroring the failure modes a
// positioning stack reports.
var (
	// ErrPermissionDenied indicates the caller may not read the position.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable indicates no position fix could be obtained.
	ErrUnavailable = errors.New("location information is unavailable")
	// ErrTimeout indicates the position lookup took too long.
	ErrTimeout = errors.New("location request timed out")
)

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Provider resolves coordinates to place names.
type Provider interface {
	// ReverseGeocode returns a human-readable label for coords.
	ReverseGeocode(ctx context.Context, coords Coordinate) (string, error)
}

// SimulatedProvider stands in for a commercial geocoding API.
type SimulatedProvider struct {
	// Latency delays each call to mimic an upstream API.
	Latency time.Duration
}

var _ Provider = (*SimulatedProvider)(nil)

// ReverseGeocode returns a coarse label built from the coordinates.
func (p *SimulatedProvider) ReverseGeocode(ctx context.Context, coords Coordinate) (string, error) {
	if coords.Lat < -90 || coords.Lat > 90 || coords.Lng < -180 || coords.Lng > 180 {
		return "", fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
	}

	if p.Latency > 0 {
		select {
		case <-time.After(p.Latency):
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrTimeout
			}
			return "", ctx.Err()
		}
	}

	return fmt.Sprintf("Detected Location Near %.2f, %.2f", coords.Lat, coords.Lng), nil
}
