// Package main provides the entrypoint for the OmniRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/aggregator"
	"github.com/omniroute/omniroute/internal/aggregator/gemini"
	"github.com/omniroute/omniroute/internal/analytics"
	"github.com/omniroute/omniroute/internal/api"
	"github.com/omniroute/omniroute/internal/api/middleware"
	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/community"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/database"
	"github.com/omniroute/omniroute/internal/location"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/search"
	"github.com/omniroute/omniroute/internal/security"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/telemetry"
	"github.com/omniroute/omniroute/internal/traffic"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "omniroute-api"

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
		Msg("starting OmniRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   Version,
		Environment:      env,
		OTLPEndpoint:     otlpEndpoint,
		Enabled:          telemetryEnabled,
		TraceSampleRatio: traceSampleRatio(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Key-value store: Redis when configured, in-process otherwise
	var store storage.Store
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
		store = redisStore
		log.Info().Str("addr", redisAddr).Msg("redis store connected")
	} else {
		store = storage.NewMemoryStore(storage.MemoryConfig{Logger: log})
		log.Warn().Msg("REDIS_ADDR not set, using in-process store")
	}

	// Community repository: PostgreSQL when enabled, in-memory otherwise
	var communityRepo community.Repository
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		communityRepo = community.NewPostgresRepository(pool)
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		communityRepo = community.NewInMemoryRepository()
		log.Warn().Msg("DB_ENABLED not set, community data is in-memory only")
	}

	// Shared infrastructure
	monitor := connectivity.NewMonitor(log)
	registry := resilience.NewRegistry()

	analyticsSvc, err := analytics.NewService(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analytics")
	}

	// Traffic feed (simulated provider)
	trafficSvc := traffic.NewService(traffic.ServiceConfig{
		Provider: traffic.NewSimulatedProvider(traffic.SimulatedConfig{
			Latency: 150 * time.Millisecond,
		}),
		Logger: log,
	})
	log.Info().Msg("traffic service initialized")

	// Route aggregation via Gemini
	geminiClient, err := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}

	aggregatorSvc := aggregator.NewService(aggregator.ServiceConfig{
		Provider:     geminiClient,
		Logger:       log,
		Traffic:      trafficSvc,
		Connectivity: monitor,
		Registry:     registry,
	})
	log.Info().Str("provider", aggregatorSvc.ProviderName()).Msg("aggregator service initialized")

	// Ticket token signing
	ticketSigningKey := os.Getenv("TICKET_SIGNING_KEY")
	if ticketSigningKey == "" {
		ticketSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default ticket signing key - not secure for production")
	}
	tokenSvc := security.NewTokenService(security.TokenConfig{
		SigningKey: ticketSigningKey,
		Issuer:     "omniroute-transit",
	})

	// Domain services
	offlineSvc := offline.NewService(store, log)
	profileSvc := profile.NewService(store, log)
	communitySvc := community.NewService(communityRepo, log)
	searchSvc := search.NewService(search.ServiceConfig{
		Aggregator:   aggregatorSvc,
		Store:        store,
		Offline:      offlineSvc,
		Connectivity: monitor,
		Analytics:    analyticsSvc,
		Logger:       log,
	})
	bookingSvc := booking.NewService(booking.ServiceConfig{
		Profiles:     profileSvc,
		Tokens:       tokenSvc,
		Limiter:      security.NewRateLimiter(security.RateLimiterConfig{}),
		Offline:      offlineSvc,
		Connectivity: monitor,
		Analytics:    analyticsSvc,
		Store:        store,
		Logger:       log,
	})
	log.Info().Msg("domain services initialized")

	// Drain the offline booking queue whenever connectivity returns.
	unsubscribe := monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			syncCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			confirmed, err := bookingSvc.SyncPending(syncCtx)
			if err != nil {
				log.Error().Err(err).Msg("pending booking sync failed after reconnect")
				return
			}
			if confirmed > 0 {
				log.Info().Int("confirmed", confirmed).Msg("synced pending bookings after reconnect")
			}
		}()
	})
	defer unsubscribe()

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		Store:            store,
		Connectivity:     monitor,
		Registry:         registry,
		SearchService:    searchSvc,
		BookingService:   bookingSvc,
		ProfileService:   profileSvc,
		CommunityService: communitySvc,
		TrafficService:   trafficSvc,
		LocationProvider: &location.SimulatedProvider{Latency: 100 * time.Millisecond},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
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
