package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/community"
)

// CommunityHandler handles rider reports and carpool endpoints.
type CommunityHandler struct {
	community *community.Service
	logger    zerolog.Logger
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(svc *community.Service, logger zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{community: svc, logger: logger}
}

// ListReports handles GET /v1/community/reports - recent rider reports.
func (h *CommunityHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	reports, err := h.community.Reports(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list reports")
		response.InternalError(w, r, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []*community.Report{}
	}
	response.JSON(w, r, http.StatusOK, reports)
}

// CreateReport handles POST /v1/community/reports - submit a rider report.
func (h *CommunityHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req models.ReportCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	report, err := h.community.SubmitReport(r.Context(), req.UserName, req.Mode, req.Location, req.Issue)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	response.Created(w, r, "/v1/community/reports/"+report.ID, report)
}

// UpvoteReport handles POST /v1/community/reports/{reportId}/upvote.
func (h *CommunityHandler) UpvoteReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")
	if reportID == "" {
		response.BadRequest(w, r, "reportId is required", nil)
		return
	}

	report, err := h.community.Upvote(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, community.ErrReportNotFound) {
			response.NotFound(w, r, "report not found")
			return
		}
		h.logger.Error().Err(err).Str("report_id", reportID).Msg("upvote failed")
		response.InternalError(w, r, "failed to upvote report")
		return
	}

	response.JSON(w, r, http.StatusOK, report)
}

// ListRides handles GET /v1/carpool/rides - open carpool rides. When
// source or destination query params are present the list is filtered
// to matching rides.
func (h *CommunityHandler) ListRides(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	destination := r.URL.Query().Get("destination")

	var (
		rides []*community.CarpoolRide
		err   error
	)
	if source != "" || destination != "" {
		rides, err = h.community.MatchRides(r.Context(), source, destination)
	} else {
		rides, err = h.community.Rides(r.Context(), parseLimit(r, 50))
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list rides")
		response.InternalError(w, r, "failed to list rides")
		return
	}
	if rides == nil {
		rides = []*community.CarpoolRide{}
	}
	response.JSON(w, r, http.StatusOK, rides)
}

// CreateRide handles POST /v1/carpool/rides - offer a carpool ride.
func (h *CommunityHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	var req models.RideCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	ride, err := h.community.OfferRide(r.Context(), community.CarpoolRide{
		DriverName:     req.DriverName,
		Source:         req.Source,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime,
		SeatsAvailable: req.SeatsAvailable,
		Cost:           req.Cost,
		Rating:         req.Rating,
	})
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	response.Created(w, r, "/v1/carpool/rides/"+ride.ID, ride)
}

// JoinRide handles POST /v1/carpool/rides/{rideId}/join - claim a seat.
func (h *CommunityHandler) JoinRide(w http.ResponseWriter, r *http.Request) {
	rideID := chi.URLParam(r, "rideId")
	if rideID == "" {
		response.BadRequest(w, r, "rideId is required", nil)
		return
	}

	ride, err := h.community.JoinRide(r.Context(), rideID)
	if err != nil {
		switch {
		case errors.Is(err, community.ErrRideNotFound):
			response.NotFound(w, r, "ride not found")
		case errors.Is(err, community.ErrNoSeats):
			response.Conflict(w, r, "no seats available on this ride")
		default:
			h.logger.Error().Err(err).Str("ride_id", rideID).Msg("join failed")
			response.InternalError(w, r, "failed to join ride")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, ride)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
