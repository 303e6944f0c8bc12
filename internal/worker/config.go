// Package worker provides background job processing for OmniRoute.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the traffic refresh job.
type RefreshConfig struct {
	// Cities are the cities whose traffic feeds are kept warm.
	// If empty, uses DefaultCities.
	Cities []string

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshTraffic enables city traffic refresh.
	// Default: true
	RefreshTraffic bool

	// SyncBookings enables draining of the offline booking queue.
	// Default: true
	SyncBookings bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Cities:         DefaultCities(),
		Concurrency:    3,
		Timeout:        30 * time.Second,
		RefreshTraffic: true,
		SyncBookings:   true,
	}
}

// DefaultCities returns the cities refreshed by default. These are the
// metros where most route searches originate.
func DefaultCities() []string {
	return []string{
		"Mumbai",
		"Delhi",
		"Bengaluru",
		"Chennai",
		"Kolkata",
		"Hyderabad",
		"Pune",
	}
}
