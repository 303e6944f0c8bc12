// Package main provides the entrypoint for the OmniRoute background worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/security"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/telemetry"
	"github.com/omniroute/omniroute/internal/traffic"
	"github.com/omniroute/omniroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "omniroute-worker"

	// Load .env for local development; ignore if missing.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting OmniRoute worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	// Initialize OpenTelemetry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   Version,
		Environment:      env,
		OTLPEndpoint:     otlpEndpoint,
		Enabled:          os.Getenv("OTEL_ENABLED") == "true",
		TraceSampleRatio: traceSampleRatio(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Traffic feed (simulated provider)
	trafficSvc := traffic.NewService(traffic.ServiceConfig{
		Provider: traffic.NewSimulatedProvider(traffic.SimulatedConfig{
			Latency: 150 * time.Millisecond,
		}),
		Logger: log,
	})

	// Refresh job configuration from environment
	refreshConfig := worker.DefaultRefreshConfig()
	if cities := os.Getenv("REFRESH_CITIES"); cities != "" {
		refreshConfig.Cities = splitCities(cities)
	}
	if v := os.Getenv("REFRESH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			refreshConfig.Concurrency = n
		}
	}
	// Booking sync only works against the store shared with the API
	// server, so it is wired when Redis is configured and dropped
	// otherwise.
	var bookingSvc *booking.Service
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisStore, err := storage.NewRedisStore(ctx, storage.RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			Logger:   log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()

		ticketSigningKey := os.Getenv("TICKET_SIGNING_KEY")
		if ticketSigningKey == "" {
			ticketSigningKey = "local-dev-signing-key-change-in-production"
			log.Warn().Msg("using default ticket signing key - not secure for production")
		}

		bookingSvc = booking.NewService(booking.ServiceConfig{
			Profiles: profile.NewService(redisStore, log),
			Tokens: security.NewTokenService(security.TokenConfig{
				SigningKey: ticketSigningKey,
				Issuer:     "omniroute-transit",
			}),
			Limiter: security.NewRateLimiter(security.RateLimiterConfig{}),
			Offline: offline.NewService(redisStore, log),
			Store:   redisStore,
			Logger:  log,
		})
		log.Info().Str("addr", redisAddr).Msg("booking sync wired to shared redis store")
	} else {
		refreshConfig.SyncBookings = false
		log.Warn().Msg("REDIS_ADDR not set, booking sync jobs will be dropped")
	}

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         refreshConfig,
		Logger:         log,
		TrafficService: trafficSvc,
		BookingService: bookingSvc,
	})

	log.Info().
		Strs("cities", refreshConfig.Cities).
		Int("concurrency", refreshConfig.Concurrency).
		Msg("refresh job configured")

	// Pub/Sub handler when configured, otherwise a local interval loop
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				cancel()
			}
		}()

		log.Info().
			Str("project", projectID).
			Str("subscription", subscription).
			Msg("worker consuming pubsub jobs")
	} else {
		interval := 5 * time.Minute
		if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				interval = d
			}
		}

		go func() {
			log.Info().Dur("interval", interval).Msg("worker running on local refresh loop")

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			runOnce := func() {
				refreshJob.Run(ctx)
				if _, err := refreshJob.SyncBookings(ctx); err != nil {
					log.Error().Err(err).Msg("booking sync failed")
				}
			}

			// Run once at startup, then on the interval.
			runOnce()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					runOnce()
				}
			}
		}()
	}

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(refreshJob.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func splitCities(s string) []string {
	parts := strings.Split(s, ",")
	cities := make([]string, 0, len(parts))
	for _, p := range parts {
		if city := strings.TrimSpace(p); city != "" {
			cities = append(cities, city)
		}
	}
	return cities
}

// traceSampleRatio reads OTEL_TRACE_SAMPLE_RATIO, zero means use the
// telemetry default of sampling everything.
func traceSampleRatio() float64 {
	v := os.Getenv("OTEL_TRACE_SAMPLE_RATIO")
	if v == "" {
		return 0
	}
	ratio, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return ratio
}
