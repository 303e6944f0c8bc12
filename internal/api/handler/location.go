package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/location"
)

// LocationHandler handles geolocation endpoints.
type LocationHandler struct {
	provider location.Provider
	logger   zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(provider location.Provider, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{provider: provider, logger: logger}
}

// ReverseGeocode handles POST /v1/location/reverse-geocode.
func (h *LocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var req models.ReverseGeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	address, err := h.provider.ReverseGeocode(r.Context(), location.Coordinate{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		switch {
		case errors.Is(err, location.ErrUnavailable):
			response.BadRequest(w, r, "coordinates out of range", nil)
		case errors.Is(err, location.ErrTimeout):
			response.ServiceUnavailable(w, r, "location lookup timed out")
		case errors.Is(err, location.ErrPermissionDenied):
			response.Unauthorized(w, r, "location permission denied")
		default:
			h.logger.Error().Err(err).Msg("reverse geocode failed")
			response.InternalError(w, r, "failed to resolve location")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReverseGeocodeResponse{Address: address})
}
