package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniroute/omniroute/internal/aggregator"
	"github.com/omniroute/omniroute/internal/api"
	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/community"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/location"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/search"
	"github.com/omniroute/omniroute/internal/security"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/traffic"
	"github.com/omniroute/omniroute/internal/transit"
)

// stubProvider is a fixed-response aggregation provider for router tests.
type stubProvider struct{}

func (stubProvider) SmartRoutes(_ context.Context, _ transit.RouteRequest, _ string) ([]transit.TravelOption, error) {
	return []transit.TravelOption{
		{
			ID:               "opt_1",
			Title:            "Metro via Ghatkopar",
			TotalDurationMin: 42,
			TotalCost:        60,
			TotalDistanceKm:  15,
			Score:            88,
			TrafficStatus:    transit.TrafficModerate,
			Legs: []transit.RouteLeg{
				{Mode: transit.ModeMetro, DurationMin: 42, DistanceKm: 15, Cost: 60, Instructions: "Board the blue line"},
			},
		},
	}, nil
}

func (stubProvider) ParseQuery(_ context.Context, _ string) (transit.PartialRouteRequest, error) {
	return transit.PartialRouteRequest{Source: "Bandra", Destination: "Andheri", City: "Mumbai"}, nil
}

func (stubProvider) Name() string { return "stub" }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)

	store := storage.NewMemoryStore(storage.MemoryConfig{Logger: logger})
	monitor := connectivity.NewMonitor(logger)
	registry := resilience.NewRegistry()

	trafficSvc := traffic.NewService(traffic.ServiceConfig{
		Provider: traffic.NewSimulatedProvider(traffic.SimulatedConfig{Seed: 1}),
		Logger:   logger,
	})
	aggSvc := aggregator.NewService(aggregator.ServiceConfig{
		Provider:     stubProvider{},
		Logger:       logger,
		Traffic:      trafficSvc,
		Connectivity: monitor,
		Registry:     registry,
	})
	offlineSvc := offline.NewService(store, logger)
	profileSvc := profile.NewService(store, logger)
	searchSvc := search.NewService(search.ServiceConfig{
		Aggregator:   aggSvc,
		Store:        store,
		Offline:      offlineSvc,
		Connectivity: monitor,
		Logger:       logger,
	})
	bookingSvc := booking.NewService(booking.ServiceConfig{
		Profiles:     profileSvc,
		Tokens:       security.NewTokenService(security.TokenConfig{SigningKey: "test-secret", Issuer: "omniroute-test"}),
		Limiter:      security.NewRateLimiter(security.RateLimiterConfig{}),
		Offline:      offlineSvc,
		Connectivity: monitor,
		Store:        store,
		Logger:       logger,
	})
	communitySvc := community.NewService(community.NewInMemoryRepository(), logger)

	return api.NewRouter(api.RouterConfig{
		Version:          "test",
		BuildTime:        "2026-01-01T00:00:00Z",
		Logger:           logger,
		Store:            store,
		Connectivity:     monitor,
		Registry:         registry,
		SearchService:    searchSvc,
		BookingService:   bookingSvc,
		ProfileService:   profileSvc,
		CommunityService: communitySvc,
		TrafficService:   trafficSvc,
		LocationProvider: &location.SimulatedProvider{},
	})
}

func postJSON(t *testing.T, router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
}

func TestRouter_SearchRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/routes/search", transit.RouteRequest{
		Source:      "Bandra West",
		Destination: "Nariman Point",
		City:        "Mumbai",
		Preference:  transit.PreferFastest,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var result search.Result
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.Equal(t, search.SourceLive, result.Source)
	require.Len(t, result.Options, 1)
	assert.Equal(t, "Metro via Ghatkopar", result.Options[0].Title)
}

func TestRouter_SearchRoutes_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	// Missing destination and city
	w := postJSON(t, router, "/v1/routes/search", transit.RouteRequest{Source: "Bandra"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_ParseQuery(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/routes/parse", models.ParseQueryRequest{Query: "bandra to andheri"})

	assert.Equal(t, http.StatusOK, w.Code)

	var partial transit.PartialRouteRequest
	err := json.Unmarshal(w.Body.Bytes(), &partial)
	require.NoError(t, err)

	assert.Equal(t, "Bandra", partial.Source)
	assert.Equal(t, "Andheri", partial.Destination)
}

func TestRouter_BookingFlow(t *testing.T) {
	router := newTestRouter(t)

	option := transit.TravelOption{
		ID:               "opt_1",
		Title:            "Metro via Ghatkopar",
		TotalDurationMin: 42,
		TotalCost:        60,
		TotalDistanceKm:  15,
		Legs: []transit.RouteLeg{
			{Mode: transit.ModeMetro, DurationMin: 42, DistanceKm: 15, Cost: 60, Instructions: "Board the blue line"},
		},
	}

	w := postJSON(t, router, "/v1/bookings", models.CheckoutRequest{Option: option})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var booked transit.Booking
	err := json.Unmarshal(w.Body.Bytes(), &booked)
	require.NoError(t, err)
	assert.Equal(t, transit.BookingUpcoming, booked.Status)
	assert.NotEmpty(t, booked.TicketToken)

	// History now holds the booking.
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", http.NoBody)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)

	var history []transit.Booking
	err = json.Unmarshal(w2.Body.Bytes(), &history)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// Cancel refunds and flips the status.
	w3 := postJSON(t, router, "/v1/bookings/"+booked.ID+"/cancel", struct{}{})
	assert.Equal(t, http.StatusOK, w3.Code)

	var cancelled transit.Booking
	err = json.Unmarshal(w3.Body.Bytes(), &cancelled)
	require.NoError(t, err)
	assert.Equal(t, transit.BookingCancelled, cancelled.Status)
}

func TestRouter_Booking_InsufficientFunds(t *testing.T) {
	router := newTestRouter(t)

	option := transit.TravelOption{
		ID:        "opt_2",
		Title:     "Premium cab",
		TotalCost: 5000,
		Legs: []transit.RouteLeg{
			{Mode: transit.ModeCab, DurationMin: 30, DistanceKm: 20, Cost: 5000, Instructions: "Book a cab"},
		},
	}

	w := postJSON(t, router, "/v1/bookings", models.CheckoutRequest{Option: option})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_SMSFallback(t *testing.T) {
	router := newTestRouter(t)

	option := transit.TravelOption{
		ID:        "opt_1",
		Title:     "Metro via Ghatkopar",
		TotalCost: 60,
		Legs: []transit.RouteLeg{
			{Mode: transit.ModeMetro, DurationMin: 42, DistanceKm: 15, Cost: 60, Instructions: "Board"},
		},
	}

	w := postJSON(t, router, "/v1/bookings/sms", models.CheckoutRequest{Option: option})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.SMSFallbackResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp.URI, "sms:+919999999999")
}

func TestRouter_GetProfile(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var p profile.Profile
	err := json.Unmarshal(w.Body.Bytes(), &p)
	require.NoError(t, err)

	assert.Equal(t, 500.0, p.WalletBalance)
}

func TestRouter_Profile_UserScoping(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(profile.SavedLocation{Label: "Home", Address: "12 Hill Road, Bandra"})
	req := httptest.NewRequest(http.MethodPost, "/v1/profile/locations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "usr_a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A different user does not see usr_a's locations.
	req2 := httptest.NewRequest(http.MethodGet, "/v1/profile", http.NoBody)
	req2.Header.Set("X-User-Id", "usr_b")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)

	var p profile.Profile
	err := json.Unmarshal(w2.Body.Bytes(), &p)
	require.NoError(t, err)
	assert.Empty(t, p.SavedLocations)
}

func TestRouter_DeleteProfile_RequiresConfirmation(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.ProfileDeleteRequest{Confirmation: "yes"})
	req := httptest.NewRequest(http.MethodDelete, "/v1/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CommunityReports(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/community/reports", models.ReportCreateRequest{
		UserName: "Priya",
		Mode:     "metro",
		Location: "Ghatkopar",
		Issue:    "escalator down",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var report community.Report
	err := json.Unmarshal(w.Body.Bytes(), &report)
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)

	w2 := postJSON(t, router, "/v1/community/reports/"+report.ID+"/upvote", struct{}{})
	assert.Equal(t, http.StatusOK, w2.Code)

	var upvoted community.Report
	err = json.Unmarshal(w2.Body.Bytes(), &upvoted)
	require.NoError(t, err)
	assert.Equal(t, 1, upvoted.Upvotes)
}

func TestRouter_CarpoolFlow(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/carpool/rides", models.RideCreateRequest{
		DriverName:     "Arjun",
		Source:         "Powai",
		Destination:    "BKC",
		DepartureTime:  time.Now().Add(time.Hour),
		SeatsAvailable: 2,
		Cost:           120,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var ride community.CarpoolRide
	err := json.Unmarshal(w.Body.Bytes(), &ride)
	require.NoError(t, err)

	// Filtered listing matches on source.
	req := httptest.NewRequest(http.MethodGet, "/v1/carpool/rides?source=powai", http.NoBody)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)

	var rides []community.CarpoolRide
	err = json.Unmarshal(w2.Body.Bytes(), &rides)
	require.NoError(t, err)
	require.Len(t, rides, 1)

	w3 := postJSON(t, router, "/v1/carpool/rides/"+ride.ID+"/join", struct{}{})
	assert.Equal(t, http.StatusOK, w3.Code)

	var joined community.CarpoolRide
	err = json.Unmarshal(w3.Body.Bytes(), &joined)
	require.NoError(t, err)
	assert.Equal(t, 1, joined.SeatsAvailable)
}

func TestRouter_CityTraffic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/traffic/Mumbai", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TrafficResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Len(t, resp.Zones, 5)
	assert.NotEmpty(t, resp.Summary)
}

func TestRouter_ReverseGeocode(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/location/reverse-geocode", models.ReverseGeocodeRequest{Lat: 19.07, Lng: 72.87})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ReverseGeocodeResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Address)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
