// Package booking handles checkout, ticket issuance and booking history.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/analytics"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/offline"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/security"
	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/transit"
)

// Predefined errors for booking operations.
var (
	// ErrNotFound indicates the booking doesn't exist in the user's history.
	ErrNotFound = errors.New("booking not found")
	// ErrNotCancellable indicates the booking is not in the upcoming state.
	ErrNotCancellable = errors.New("only upcoming bookings can be cancelled")
)

// ServiceConfig holds configuration for the booking service.
type ServiceConfig struct {
	// Profiles manages wallets and carbon totals.
	Profiles *profile.Service

	// Tokens issues ticket tokens.
	Tokens *security.TokenService

	// Limiter gates checkout attempts per user.
	Limiter *security.RateLimiter

	// Offline queues bookings made without connectivity.
	Offline *offline.Service

	// Connectivity decides between immediate and queued checkout.
	Connectivity *connectivity.Monitor

	// Analytics tracks booking events (optional).
	Analytics *analytics.Service

	// Store persists per-user booking history.
	Store storage.Store

	// Logger for service operations.
	Logger zerolog.Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Service runs the checkout flow.
type Service struct {
	profiles     *profile.Service
	tokens       *security.TokenService
	limiter      *security.RateLimiter
	offline      *offline.Service
	connectivity *connectivity.Monitor
	analytics    *analytics.Service
	store        storage.Store
	logger       zerolog.Logger
	clock        func() time.Time

	// syncMu serializes queue drains so a reconnect-triggered sync and an
	// explicit sync request cannot finalize the same booking twice.
	syncMu sync.Mutex
}

// NewService creates a new booking service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		profiles:     cfg.Profiles,
		tokens:       cfg.Tokens,
		limiter:      cfg.Limiter,
		offline:      cfg.Offline,
		connectivity: cfg.Connectivity,
		analytics:    cfg.Analytics,
		store:        cfg.Store,
		logger:       cfg.Logger,
		clock:        clock,
	}
}

func historyKey(userID string) string {
	return "bookings_" + userID
}

// RateLimit reports the user's checkout attempt budget, for Retry-After
// and X-RateLimit headers on rejected checkouts.
func (s *Service) RateLimit(userID string) security.Status {
	return s.limiter.Status(userID)
}

// Checkout books the given travel option for userID.
//
// Every attempt counts against the user's rate limit, including queued
// ones. Online checkouts debit the wallet, issue a ticket token and land
// in history as upcoming; offline checkouts are queued as pending with no
// payment taken until the queue is synced.
func (s *Service) Checkout(ctx context.Context, userID string, option transit.TravelOption) (transit.Booking, error) {
	if err := s.limiter.Allow(userID); err != nil {
		s.analytics.TrackError(ctx, "booking_rate_limited", err)
		return transit.Booking{}, err
	}

	booking := transit.Booking{
		ID:          "bkg_" + uuid.NewString(),
		UserID:      userID,
		Date:        s.clock(),
		RouteTitle:  option.Title,
		TotalCost:   option.TotalCost,
		Legs:        option.Legs,
		CarbonSaved: carbonSaved(option),
	}

	if s.connectivity != nil && !s.connectivity.Online() {
		if err := s.offline.QueueBooking(ctx, booking); err != nil {
			return transit.Booking{}, fmt.Errorf("queueing offline booking: %w", err)
		}
		booking.Status = transit.BookingPending
		s.analytics.TrackBooking(ctx, booking.RouteTitle, booking.TotalCost, true)
		return booking, nil
	}

	finalized, err := s.finalize(ctx, booking)
	if err != nil {
		return transit.Booking{}, err
	}
	s.analytics.TrackBooking(ctx, finalized.RouteTitle, finalized.TotalCost, false)
	return finalized, nil
}

// finalize debits the wallet, issues the ticket and appends to history.
// Any failure after the debit refunds it, so a failed checkout never
// keeps the fare.
func (s *Service) finalize(ctx context.Context, booking transit.Booking) (transit.Booking, error) {
	if _, err := s.profiles.DebitWallet(ctx, booking.UserID, booking.TotalCost, "Booking "+booking.RouteTitle); err != nil {
		return transit.Booking{}, err
	}

	token, err := s.tokens.IssueTicketToken(booking.ID, booking.UserID)
	if err != nil {
		s.refund(ctx, booking)
		return transit.Booking{}, fmt.Errorf("issuing ticket token: %w", err)
	}

	booking.TicketToken = token
	booking.Status = transit.BookingUpcoming

	if err := s.appendHistory(ctx, booking); err != nil {
		s.refund(ctx, booking)
		return transit.Booking{}, fmt.Errorf("recording booking: %w", err)
	}
	if booking.CarbonSaved > 0 {
		if _, err := s.profiles.RecordTrip(ctx, booking.UserID, booking.CarbonSaved); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to record carbon savings")
		}
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("user_id", booking.UserID).
		Float64("cost", booking.TotalCost).
		Msg("booking confirmed")
	return booking, nil
}

// refund reverses the checkout debit after a post-debit failure.
func (s *Service) refund(ctx context.Context, booking transit.Booking) {
	if _, err := s.profiles.CreditWallet(ctx, booking.UserID, booking.TotalCost, "Refund "+booking.RouteTitle); err != nil {
		s.logger.Error().Err(err).
			Str("booking_id", booking.ID).
			Str("user_id", booking.UserID).
			Float64("amount", booking.TotalCost).
			Msg("refund after failed checkout also failed")
	}
}

// History returns the user's bookings, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]transit.Booking, error) {
	var history []transit.Booking
	if _, err := storage.GetJSON(ctx, s.store, historyKey(userID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Cancel marks an upcoming booking cancelled and refunds the fare.
func (s *Service) Cancel(ctx context.Context, userID, bookingID string) (transit.Booking, error) {
	history, err := s.History(ctx, userID)
	if err != nil {
		return transit.Booking{}, err
	}

	for i, b := range history {
		if b.ID != bookingID {
			continue
		}
		if b.Status != transit.BookingUpcoming {
			return transit.Booking{}, fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, ErrNotCancellable)
		}
		history[i].Status = transit.BookingCancelled
		if err := s.store.Set(ctx, historyKey(userID), history, 0); err != nil {
			return transit.Booking{}, err
		}
		if _, err := s.profiles.CreditWallet(ctx, userID, b.TotalCost, "Refund "+b.RouteTitle); err != nil {
			return transit.Booking{}, err
		}
		return history[i], nil
	}
	return transit.Booking{}, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
}

// SyncPending finalizes queued offline bookings one at a time, removing
// each from the queue as it lands so a partial sync never finalizes a
// booking twice. Bookings the wallet can no longer cover are recorded as
// cancelled with no money taken; transient failures stay queued for the
// next sync. Returns the number of bookings confirmed.
func (s *Service) SyncPending(ctx context.Context) (int, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	pending, err := s.offline.PendingBookings(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	confirmed := 0
	for _, b := range pending {
		if _, err := s.finalize(ctx, b); err != nil {
			if errors.Is(err, profile.ErrInsufficientFunds) {
				s.logger.Warn().
					Str("booking_id", b.ID).
					Float64("cost", b.TotalCost).
					Msg("queued booking no longer affordable, recording as cancelled")
				b.Status = transit.BookingCancelled
				if histErr := s.appendHistory(ctx, b); histErr != nil {
					return confirmed, histErr
				}
				if deqErr := s.offline.DequeueBooking(ctx, b.ID); deqErr != nil {
					return confirmed, deqErr
				}
				continue
			}
			// The debit was already refunded by finalize; the booking
			// stays queued and is retried on the next sync.
			s.logger.Warn().Err(err).
				Str("booking_id", b.ID).
				Msg("queued booking could not be finalized, will retry")
			continue
		}
		if err := s.offline.DequeueBooking(ctx, b.ID); err != nil {
			return confirmed + 1, err
		}
		confirmed++
	}

	s.logger.Info().
		Int("confirmed", confirmed).
		Int("queued", len(pending)).
		Msg("synced pending bookings")
	return confirmed, nil
}

func (s *Service) appendHistory(ctx context.Context, booking transit.Booking) error {
	history, err := s.History(ctx, booking.UserID)
	if err != nil {
		return err
	}
	history = append(history, booking)
	return s.store.Set(ctx, historyKey(booking.UserID), history, 0)
}

// carbonSaved estimates avoided emissions against an all-cab baseline.
func carbonSaved(option transit.TravelOption) float64 {
	baseline := transit.CarbonFootprint(transit.ModeCab, option.TotalDistanceKm)
	saved := baseline - option.CarbonFootprintKg
	if saved < 0 {
		return 0
	}
	return saved
}
