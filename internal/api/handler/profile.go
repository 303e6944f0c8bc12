package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/middleware"
	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/profile"
)

// ProfileHandler handles traveller profile endpoints.
type ProfileHandler struct {
	profiles *profile.Service
	logger   zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// GetProfile handles GET /v1/profile - the caller's profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load profile")
		response.InternalError(w, r, "failed to load profile")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// UpdateSettings handles PUT /v1/profile/settings.
func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings profile.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.UpdateSettings(r.Context(), userID, settings)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update settings")
		response.InternalError(w, r, "failed to update settings")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// AddSavedLocation handles POST /v1/profile/locations.
func (h *ProfileHandler) AddSavedLocation(w http.ResponseWriter, r *http.Request) {
	var loc profile.SavedLocation
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if loc.Label == "" || loc.Address == "" {
		response.BadRequest(w, r, "label and address are required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.AddSavedLocation(r.Context(), userID, loc)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to add saved location")
		response.InternalError(w, r, "failed to add saved location")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// RemoveSavedLocation handles DELETE /v1/profile/locations/{locationId}.
func (h *ProfileHandler) RemoveSavedLocation(w http.ResponseWriter, r *http.Request) {
	locationID := chi.URLParam(r, "locationId")
	if locationID == "" {
		response.BadRequest(w, r, "locationId is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.RemoveSavedLocation(r.Context(), userID, locationID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to remove saved location")
		response.InternalError(w, r, "failed to remove saved location")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// AddSafetyContact handles POST /v1/profile/contacts.
func (h *ProfileHandler) AddSafetyContact(w http.ResponseWriter, r *http.Request) {
	var contact profile.SafetyContact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if contact.Name == "" || contact.Phone == "" {
		response.BadRequest(w, r, "name and phone are required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.AddSafetyContact(r.Context(), userID, contact)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to add safety contact")
		response.InternalError(w, r, "failed to add safety contact")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// RemoveSafetyContact handles DELETE /v1/profile/contacts/{contactId}.
func (h *ProfileHandler) RemoveSafetyContact(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactId")
	if contactID == "" {
		response.BadRequest(w, r, "contactId is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.RemoveSafetyContact(r.Context(), userID, contactID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to remove safety contact")
		response.InternalError(w, r, "failed to remove safety contact")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// AddFavoriteRoute handles POST /v1/profile/favorites.
func (h *ProfileHandler) AddFavoriteRoute(w http.ResponseWriter, r *http.Request) {
	var route profile.FavoriteRoute
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if route.Source == "" || route.Destination == "" {
		response.BadRequest(w, r, "source and destination are required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.AddFavoriteRoute(r.Context(), userID, route)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to add favorite route")
		response.InternalError(w, r, "failed to add favorite route")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// RemoveFavoriteRoute handles DELETE /v1/profile/favorites/{routeId}.
func (h *ProfileHandler) RemoveFavoriteRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if routeID == "" {
		response.BadRequest(w, r, "routeId is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.RemoveFavoriteRoute(r.Context(), userID, routeID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to remove favorite route")
		response.InternalError(w, r, "failed to remove favorite route")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// TopUpWallet handles POST /v1/profile/wallet/topup.
func (h *ProfileHandler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	var req models.WalletTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Amount <= 0 {
		response.BadRequest(w, r, "amount must be positive", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.profiles.CreditWallet(r.Context(), userID, req.Amount, "Wallet top-up")
	if err != nil {
		h.logger.Error().Err(err).Msg("wallet top-up failed")
		response.InternalError(w, r, "failed to top up wallet")
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// ExportProfile handles GET /v1/profile/export - full data export.
func (h *ProfileHandler) ExportProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	data, err := h.profiles.Export(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("profile export failed")
		response.InternalError(w, r, "failed to export profile")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="omniroute-profile.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteProfile handles DELETE /v1/profile - erase all traveller data.
// The body must carry the confirmation string "DELETE".
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.profiles.Delete(r.Context(), userID, req.Confirmation); err != nil {
		if errors.Is(err, profile.ErrNotConfirmed) {
			response.BadRequest(w, r, `confirmation must be "DELETE"`, nil)
			return
		}
		h.logger.Error().Err(err).Msg("profile deletion failed")
		response.InternalError(w, r, "failed to delete profile")
		return
	}
	response.NoContent(w, r)
}
