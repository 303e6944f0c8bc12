// Package api provides the HTTP API for OmniRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/handler"
	"github.com/omniroute/omniroute/internal/api/middleware"
	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/community"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/location"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/search"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/traffic"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	Store            storage.Store
	Connectivity     *connectivity.Monitor
	Registry         *resilience.Registry
	SearchService    *search.Service
	BookingService   *booking.Service
	ProfileService   *profile.Service
	CommunityService *community.Service
	TrafficService   *traffic.Service
	LocationProvider location.Provider
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "omniroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type
	r.Use(middleware.Identity)             // Caller identity from X-User-Id

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Store, cfg.Connectivity, cfg.Registry)
	searchHandler := handler.NewSearchHandler(cfg.SearchService, cfg.ProfileService, cfg.Logger)
	bookingHandler := handler.NewBookingHandler(cfg.BookingService, cfg.Logger)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService, cfg.Logger)
	communityHandler := handler.NewCommunityHandler(cfg.CommunityService, cfg.Logger)
	trafficHandler := handler.NewTrafficHandler(cfg.TrafficService, cfg.Logger)
	locationHandler := handler.NewLocationHandler(cfg.LocationProvider, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	strictRateLimit := middleware.RateLimitByIP(middleware.StrictRateLimit)       // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Route search - expensive compute (AI generation), strict rate limiting
		r.Route("/routes", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Post("/search", searchHandler.SearchRoutes)
			r.Post("/parse", searchHandler.ParseQuery)
		})

		// Bookings - per-user rate limiting on top of the app-level
		// booking attempt limiter
		r.Route("/bookings", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/", bookingHandler.Checkout)
			r.Get("/", bookingHandler.History)
			r.Post("/sync", bookingHandler.Sync)
			r.Post("/sms", bookingHandler.SMSFallback)
			r.Post("/{bookingId}/cancel", bookingHandler.Cancel)
		})

		// Profile endpoints
		r.Route("/profile", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", profileHandler.GetProfile)
			r.Put("/settings", profileHandler.UpdateSettings)
			r.Get("/export", profileHandler.ExportProfile)
			r.With(strictRateLimit).Delete("/", profileHandler.DeleteProfile)

			r.Route("/locations", func(r chi.Router) {
				r.Post("/", profileHandler.AddSavedLocation)
				r.Delete("/{locationId}", profileHandler.RemoveSavedLocation)
			})
			r.Route("/contacts", func(r chi.Router) {
				r.Post("/", profileHandler.AddSafetyContact)
				r.Delete("/{contactId}", profileHandler.RemoveSafetyContact)
			})
			r.Route("/favorites", func(r chi.Router) {
				r.Post("/", profileHandler.AddFavoriteRoute)
				r.Delete("/{routeId}", profileHandler.RemoveFavoriteRoute)
			})
			r.Post("/wallet/topup", profileHandler.TopUpWallet)
		})

		// Community reports
		r.Route("/community/reports", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", communityHandler.ListReports)
			r.Post("/", communityHandler.CreateReport)
			r.Post("/{reportId}/upvote", communityHandler.UpvoteReport)
		})

		// Carpool rides
		r.Route("/carpool/rides", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", communityHandler.ListRides)
			r.Post("/", communityHandler.CreateRide)
			r.Post("/{rideId}/join", communityHandler.JoinRide)
		})

		// City traffic (standard rate limiting, served from cache)
		r.With(standardRateLimit).Get("/traffic/{city}", trafficHandler.CityTraffic)

		// Location
		r.With(standardRateLimit).Post("/location/reverse-geocode", locationHandler.ReverseGeocode)
	})

	return r
}
