// Package offline keeps a small route cache and a pending booking queue so
// searches and checkouts keep working without the route provider.
package offline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/storage"
	"github.com/omniroute/omniroute/internal/transit"
)

const (
	queueKey      = "pending_bookings"
	routeCacheKey = "offline_routes"

	// maxCachedRoutes bounds the offline route cache, most recent first.
	maxCachedRoutes = 10

	// smsGateway receives manual booking requests when the app is offline.
	smsGateway = "+919999999999"
)

// Service manages offline route caching and booking queueing.
type Service struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewService creates a new offline service.
func NewService(store storage.Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CacheRoute adds route to the offline cache. The cache is kept most recent
// first, deduplicated by route ID and capped at ten entries.
func (s *Service) CacheRoute(ctx context.Context, route transit.TravelOption) error {
	cached, err := s.CachedRoutes(ctx)
	if err != nil {
		return err
	}

	updated := make([]transit.TravelOption, 0, len(cached)+1)
	updated = append(updated, route)
	for _, r := range cached {
		if r.ID != route.ID {
			updated = append(updated, r)
		}
	}
	if len(updated) > maxCachedRoutes {
		updated = updated[:maxCachedRoutes]
	}
	return s.store.Set(ctx, routeCacheKey, updated, 0)
}

// CachedRoutes returns the offline route cache, most recent first.
func (s *Service) CachedRoutes(ctx context.Context) ([]transit.TravelOption, error) {
	var routes []transit.TravelOption
	if _, err := storage.GetJSON(ctx, s.store, routeCacheKey, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// MatchRoutes returns cached routes whose title mentions the source or
// destination, for serving searches while offline.
func (s *Service) MatchRoutes(ctx context.Context, source, destination string) ([]transit.TravelOption, error) {
	routes, err := s.CachedRoutes(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]transit.TravelOption, 0, len(routes))
	for _, r := range routes {
		if containsFold(r.Title, source) || containsFold(r.Title, destination) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// QueueBooking appends booking to the pending queue with pending status.
func (s *Service) QueueBooking(ctx context.Context, booking transit.Booking) error {
	queue, err := s.PendingBookings(ctx)
	if err != nil {
		return err
	}

	booking.Status = transit.BookingPending
	queue = append(queue, booking)
	if err := s.store.Set(ctx, queueKey, queue, 0); err != nil {
		return err
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Int("queue_length", len(queue)).
		Msg("queued booking for sync")
	return nil
}

// PendingBookings returns the queued bookings in enqueue order.
func (s *Service) PendingBookings(ctx context.Context) ([]transit.Booking, error) {
	var queue []transit.Booking
	if _, err := storage.GetJSON(ctx, s.store, queueKey, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// DequeueBooking removes a single booking from the pending queue by ID.
// Unknown IDs are a no-op.
func (s *Service) DequeueBooking(ctx context.Context, bookingID string) error {
	queue, err := s.PendingBookings(ctx)
	if err != nil {
		return err
	}

	kept := queue[:0]
	for _, b := range queue {
		if b.ID != bookingID {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return s.store.Delete(ctx, queueKey)
	}
	return s.store.Set(ctx, queueKey, kept, 0)
}

// ClearQueue drops all pending bookings.
func (s *Service) ClearQueue(ctx context.Context) error {
	return s.store.Delete(ctx, queueKey)
}

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// SMSBookingURI renders an sms: link that submits the booking by text
// message, the last-resort path when there is no data connection at all.
func SMSBookingURI(booking transit.Booking) string {
	body := fmt.Sprintf("OmniRoute Booking Request:\nID: %s\nRoute: %s\nTotal: ₹%.0f\nStatus: URGENT",
		booking.ID, booking.RouteTitle, booking.TotalCost)
	return "sms:" + smsGateway + "?body=" + url.QueryEscape(body)
}
