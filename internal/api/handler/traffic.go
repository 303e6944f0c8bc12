package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/traffic"
)

// TrafficHandler handles city traffic endpoints.
type TrafficHandler struct {
	traffic *traffic.Service
	logger  zerolog.Logger
}

// NewTrafficHandler creates a new TrafficHandler.
func NewTrafficHandler(svc *traffic.Service, logger zerolog.Logger) *TrafficHandler {
	return &TrafficHandler{traffic: svc, logger: logger}
}

// CityTraffic handles GET /v1/traffic/{city} - zone-level traffic.
func (h *TrafficHandler) CityTraffic(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		response.BadRequest(w, r, "city is required", nil)
		return
	}

	zones, err := h.traffic.CityTraffic(r.Context(), city)
	if err != nil {
		if errors.Is(err, traffic.ErrNoData) {
			response.NotFound(w, r, "no traffic data for this city")
			return
		}
		h.logger.Error().Err(err).Str("city", city).Msg("traffic lookup failed")
		response.ServiceUnavailable(w, r, "traffic data is temporarily unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TrafficResponse{
		City:    city,
		Zones:   zones,
		Summary: traffic.Summary(zones),
		Time:    models.Timestamp(time.Now()),
	})
}
