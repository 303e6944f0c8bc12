package traffic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the traffic service.
type ServiceConfig struct {
	// Provider is the traffic data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache city readings (default: 2 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 10 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides city traffic readings with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedReading
}

type cachedReading struct {
	zones     []Zone
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new traffic service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 2 * time.Minute
	}
	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 10 * time.Minute
	}
	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedReading),
	}
}

// CityTraffic returns zone readings for city, cached per city.
func (s *Service) CityTraffic(ctx context.Context, city string) ([]Zone, error) {
	key := strings.ToLower(strings.TrimSpace(city))

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.zones, nil
	}
	s.mu.RUnlock()

	return s.fetch(ctx, city, key)
}

// Refresh forces a provider fetch for city, replacing any cached reading.
// Used by the background worker to keep hot cities warm.
func (s *Service) Refresh(ctx context.Context, city string) error {
	key := strings.ToLower(strings.TrimSpace(city))

	zones, err := s.provider.CityTraffic(ctx, city)
	if err != nil {
		return err
	}
	now := time.Now()

	s.mu.Lock()
	s.cache[key] = &cachedReading{
		zones:     zones,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) fetch(ctx context.Context, city, key string) ([]Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check under the write lock.
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.zones, nil
	}

	zones, err := s.provider.CityTraffic(ctx, city)
	if err != nil {
		s.logger.Error().Err(err).
			Str("city", city).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch traffic data")

		if cached, ok := s.cache[key]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Str("city", city).
					Time("fetched_at", cached.fetchedAt).
					Msg("serving stale traffic data due to provider error")
				return cached.zones, nil
			}
		}
		return nil, err
	}

	now := time.Now()
	s.cache[key] = &cachedReading{
		zones:     zones,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	return zones, nil
}

// Summary renders zone readings as a single line for prompt context,
// e.g. "Central Business District: Heavy (worsening); Old City: Low (stable)".
func Summary(zones []Zone) string {
	if len(zones) == 0 {
		return "no traffic data available"
	}
	parts := make([]string, 0, len(zones))
	for _, z := range zones {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", z.Name, z.Density, z.Trend))
	}
	return strings.Join(parts, "; ")
}
