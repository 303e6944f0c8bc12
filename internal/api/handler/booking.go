package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/api/middleware"
	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/booking"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/security"
	"github.com/omniroute/omniroute/internal/transit"
)

// BookingHandler handles ticket booking endpoints.
type BookingHandler struct {
	bookings *booking.Service
	logger   zerolog.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *booking.Service, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// Checkout handles POST /v1/bookings - book a selected travel option.
// Offline checkouts are queued and returned with a pending status.
func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Option.ID == "" || len(req.Option.Legs) == 0 {
		response.BadRequest(w, r, "option with at least one leg is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	booked, err := h.bookings.Checkout(r.Context(), userID, req.Option)
	if err != nil {
		h.writeBookingError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/bookings/"+booked.ID, booked)
}

// History handles GET /v1/bookings - list the caller's bookings.
func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bookings, err := h.bookings.History(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load booking history")
		response.InternalError(w, r, "failed to load booking history")
		return
	}
	if bookings == nil {
		bookings = []transit.Booking{}
	}
	response.JSON(w, r, http.StatusOK, bookings)
}

// Cancel handles POST /v1/bookings/{bookingId}/cancel - cancel an
// upcoming booking and refund its cost to the wallet.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if bookingID == "" {
		response.BadRequest(w, r, "bookingId is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	cancelled, err := h.bookings.Cancel(r.Context(), userID, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			response.NotFound(w, r, "booking not found")
			return
		}
		if errors.Is(err, booking.ErrNotCancellable) {
			response.Conflict(w, r, "only upcoming bookings can be cancelled")
			return
		}
		h.logger.Error().Err(err).Str("booking_id", bookingID).Msg("cancel failed")
		response.InternalError(w, r, "failed to cancel booking")
		return
	}

	response.JSON(w, r, http.StatusOK, cancelled)
}

// Sync handles POST /v1/bookings/sync - confirm queued offline bookings.
func (h *BookingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	confirmed, err := h.bookings.SyncPending(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("pending booking sync failed")
		response.InternalError(w, r, "failed to sync pending bookings")
		return
	}
	response.JSON(w, r, http.StatusOK, models.SyncResponse{Confirmed: confirmed})
}

// SMSFallback handles POST /v1/bookings/sms - build an sms: URI that
// books the option through the SMS gateway when data is unavailable.
func (h *BookingHandler) SMSFallback(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Option.Title == "" {
		response.BadRequest(w, r, "option is required", nil)
		return
	}

	userID := middleware.GetUserID(r.Context())
	draft := transit.Booking{
		ID:         "bkg_sms_" + bookingSuffix(req.Option.ID),
		UserID:     userID,
		RouteTitle: req.Option.Title,
		TotalCost:  req.Option.TotalCost,
		Legs:       req.Option.Legs,
	}
	response.JSON(w, r, http.StatusOK, models.SMSFallbackResponse{
		URI: offline.SMSBookingURI(draft),
	})
}

func (h *BookingHandler) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, security.ErrRateLimited):
		status := h.bookings.RateLimit(middleware.GetUserID(r.Context()))
		retryAfter := 0
		if !status.ResetAt.IsZero() {
			retryAfter = int(time.Until(status.ResetAt).Seconds()) + 1
		}
		response.TooManyRequestsWithInfo(w, r, "too many booking attempts, please wait a minute", &response.RateLimitInfo{
			Limit:      status.Limit,
			Remaining:  status.Remaining,
			ResetAt:    status.ResetAt.Unix(),
			RetryAfter: retryAfter,
		})
	case errors.Is(err, profile.ErrInsufficientFunds):
		response.Conflict(w, r, "insufficient wallet balance")
	default:
		h.logger.Error().Err(err).Msg("checkout failed")
		response.InternalError(w, r, "failed to complete booking")
	}
}

func bookingSuffix(optionID string) string {
	if len(optionID) > 8 {
		return optionID[:8]
	}
	return optionID
}
