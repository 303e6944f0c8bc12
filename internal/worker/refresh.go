package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/traffic"
)

// RefreshJob keeps city traffic caches warm and drains the offline
// booking queue.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	trafficService *traffic.Service
	bookingService *booking.Service

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	TrafficRefreshes  int64
	BookingsConfirmed int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config         RefreshConfig
	Logger         zerolog.Logger
	TrafficService *traffic.Service
	BookingService *booking.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Cities) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:         config,
		logger:         cfg.Logger,
		trafficService: cfg.TrafficService,
		bookingService: cfg.BookingService,
		metrics:        &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalCities int
	Successful  int
	Failed      int
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	City  string
	Error string
}

// Run refreshes the traffic feed for every configured city.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalCities: len(j.config.Cities),
	}

	j.logger.Info().
		Int("total_cities", result.TotalCities).
		Int("concurrency", j.config.Concurrency).
		Msg("starting traffic refresh job")

	if j.config.RefreshTraffic && j.trafficService != nil {
		var (
			mu         sync.Mutex
			successful atomic.Int64
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(j.config.Concurrency)

		for _, city := range j.config.Cities {
			city := city
			g.Go(func() error {
				cityCtx, cancel := context.WithTimeout(gctx, j.config.Timeout)
				defer cancel()

				if err := j.trafficService.Refresh(cityCtx, city); err != nil {
					mu.Lock()
					result.Errors = append(result.Errors, RefreshError{
						City:  city,
						Error: err.Error(),
					})
					mu.Unlock()
					// Errors are collected, not propagated, so the
					// remaining cities still refresh.
					return nil
				}
				successful.Add(1)
				atomic.AddInt64(&j.metrics.TrafficRefreshes, 1)
				return nil
			})
		}
		_ = g.Wait()

		result.Successful = int(successful.Load())
		result.Failed = len(result.Errors)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("traffic refresh job completed")

	return result
}

// SyncBookings finalizes queued offline bookings. Returns the number of
// bookings confirmed.
func (j *RefreshJob) SyncBookings(ctx context.Context) (int, error) {
	if !j.config.SyncBookings || j.bookingService == nil {
		return 0, nil
	}

	j.logger.Debug().Msg("syncing queued offline bookings")

	confirmed, err := j.bookingService.SyncPending(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to sync queued bookings")
		return confirmed, err
	}

	atomic.AddInt64(&j.metrics.BookingsConfirmed, int64(confirmed))
	return confirmed, nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		TrafficRefreshes:    atomic.LoadInt64(&j.metrics.TrafficRefreshes),
		BookingsConfirmed:   atomic.LoadInt64(&j.metrics.BookingsConfirmed),
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"traffic_refreshes":     m.TrafficRefreshes,
		"bookings_confirmed":    m.BookingsConfirmed,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
