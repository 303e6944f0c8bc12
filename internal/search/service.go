// Package search orchestrates route searches across the live aggregator,
// the per-query result cache and the offline route cache.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/aggregator"
	"github.com/omniroute/omniroute/internal/analytics"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/transit"
)

// Source classifies where a search result came from.
type Source string

const (
	// SourceLive means fresh provider output.
	SourceLive Source = "live"
	// SourceCached means stale cached results served after a provider failure.
	SourceCached Source = "cached"
	// SourceOffline means the device-style offline cache answered.
	SourceOffline Source = "offline"
)

// Result is the outcome of a route search.
type Result struct {
	Options []transit.TravelOption `json:"options"`
	Source  Source                 `json:"source"`
	Notice  string                 `json:"notice,omitempty"`

	// Sequence orders results within this service instance. Callers that
	// issue overlapping searches keep only the highest sequence they have
	// seen and drop the rest as superseded.
	Sequence uint64 `json:"sequence"`
}

// ServiceConfig holds configuration for the search service.
type ServiceConfig struct {
	// Aggregator generates live travel options.
	Aggregator *aggregator.Service

	// Store caches search results per query.
	Store storage.Store

	// Offline holds the bounded offline route cache.
	Offline *offline.Service

	// Connectivity gates live searches.
	Connectivity *connectivity.Monitor

	// Analytics tracks search events (optional).
	Analytics *analytics.Service

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long query results stay fresh (default: 15 minutes).
	CacheTTL time.Duration
}

// Service runs route searches.
type Service struct {
	aggregator   *aggregator.Service
	store        storage.Store
	offline      *offline.Service
	connectivity *connectivity.Monitor
	analytics    *analytics.Service
	logger       zerolog.Logger
	cacheTTL     time.Duration

	seq atomic.Uint64
}

// NewService creates a new search service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}
	return &Service{
		aggregator:   cfg.Aggregator,
		store:        cfg.Store,
		offline:      cfg.Offline,
		connectivity: cfg.Connectivity,
		analytics:    cfg.Analytics,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
	}
}

// CacheKey builds the per-query cache key. Whitespace is stripped and the
// key lowercased so "Bandra West" and "bandrawest" share an entry.
func CacheKey(city, source, destination string) string {
	key := fmt.Sprintf("routes_%s_%s_%s", city, source, destination)
	key = strings.Join(strings.Fields(key), "")
	return strings.ToLower(key)
}

// Search returns travel options for the request.
//
// While online it asks the aggregator and caches the result; after a
// provider failure it falls back to the cached result for the same query.
// While offline it serves title matches from the offline cache, then the
// query cache. Only a provider failure with no fallback returns an error.
func (s *Service) Search(ctx context.Context, req transit.RouteRequest) (Result, error) {
	seq := s.seq.Add(1)
	s.analytics.TrackRouteSearch(ctx, req.Source, req.Destination, req.City)

	cacheKey := CacheKey(req.City, req.Source, req.Destination)

	if s.connectivity != nil && !s.connectivity.Online() {
		return s.searchOffline(ctx, req, cacheKey, seq)
	}

	options, err := s.aggregator.SmartRoutes(ctx, req)
	if err != nil {
		var cached []transit.TravelOption
		if ok, _ := storage.GetJSON(ctx, s.store, cacheKey, &cached); ok {
			s.logger.Warn().Err(err).
				Str("cache_key", cacheKey).
				Msg("provider failed, serving cached results")
			return Result{
				Options:  cached,
				Source:   SourceCached,
				Notice:   "Network slow. Showing recently cached results.",
				Sequence: seq,
			}, nil
		}
		s.analytics.TrackError(ctx, "route_search", err)
		return Result{}, err
	}

	if err := s.store.Set(ctx, cacheKey, options, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", cacheKey).Msg("failed to cache search results")
	}
	// The top option also goes into the bounded offline cache.
	if s.offline != nil && len(options) > 0 {
		if err := s.offline.CacheRoute(ctx, options[0]); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache route for offline use")
		}
	}

	return Result{Options: options, Source: SourceLive, Sequence: seq}, nil
}

func (s *Service) searchOffline(ctx context.Context, req transit.RouteRequest, cacheKey string, seq uint64) (Result, error) {
	notice := "You are offline. Showing routes cached on this device."

	if s.offline != nil {
		matched, err := s.offline.MatchRoutes(ctx, req.Source, req.Destination)
		if err == nil && len(matched) > 0 {
			return Result{Options: matched, Source: SourceOffline, Notice: notice, Sequence: seq}, nil
		}
	}

	var cached []transit.TravelOption
	if ok, _ := storage.GetJSON(ctx, s.store, cacheKey, &cached); ok {
		return Result{Options: cached, Source: SourceOffline, Notice: notice, Sequence: seq}, nil
	}

	// Nothing cached: an empty offline result, not an error.
	return Result{Options: []transit.TravelOption{}, Source: SourceOffline, Notice: notice, Sequence: seq}, nil
}

// ParseQuery extracts request fields from free text, best effort.
func (s *Service) ParseQuery(ctx context.Context, query string) transit.PartialRouteRequest {
	return s.aggregator.ParseQuery(ctx, query)
}

// CurrentSequence returns the sequence of the most recently started search.
func (s *Service) CurrentSequence() uint64 {
	return s.seq.Load()
}
