package community

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/transit"
)

// Service provides community reports and carpool matching.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	clock  func() time.Time
}

// NewService creates a new community service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, clock: time.Now}
}

// SubmitReport validates and stores a rider report.
func (s *Service) SubmitReport(ctx context.Context, userName, rawMode, location, issue string) (*Report, error) {
	mode, ok := transit.NormalizeMode(rawMode)
	if !ok {
		return nil, fmt.Errorf("unknown transport mode %q", rawMode)
	}
	if strings.TrimSpace(location) == "" || strings.TrimSpace(issue) == "" {
		return nil, fmt.Errorf("location and issue are required")
	}
	if strings.TrimSpace(userName) == "" {
		userName = "Anonymous"
	}

	report := &Report{
		ID:        uuid.NewString(),
		UserName:  userName,
		Mode:      mode,
		Location:  location,
		Issue:     issue,
		CreatedAt: s.clock(),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("mode", string(mode)).
		Str("location", location).
		Msg("community report submitted")
	return report, nil
}

// Reports returns recent reports, newest first.
func (s *Service) Reports(ctx context.Context, limit int) ([]*Report, error) {
	return s.repo.ListReports(ctx, limit)
}

// Upvote increments a report's upvote count.
func (s *Service) Upvote(ctx context.Context, reportID string) (*Report, error) {
	return s.repo.UpvoteReport(ctx, reportID)
}

// OfferRide validates and stores a carpool offer.
func (s *Service) OfferRide(ctx context.Context, ride CarpoolRide) (*CarpoolRide, error) {
	if strings.TrimSpace(ride.DriverName) == "" {
		return nil, fmt.Errorf("driver name is required")
	}
	if strings.TrimSpace(ride.Source) == "" || strings.TrimSpace(ride.Destination) == "" {
		return nil, fmt.Errorf("source and destination are required")
	}
	if ride.SeatsAvailable <= 0 {
		return nil, fmt.Errorf("seatsAvailable must be positive, got %d", ride.SeatsAvailable)
	}
	if ride.Cost < 0 {
		return nil, fmt.Errorf("cost must be non-negative, got %v", ride.Cost)
	}

	ride.ID = uuid.NewString()
	ride.CreatedAt = s.clock()
	if err := s.repo.CreateRide(ctx, &ride); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ride_id", ride.ID).
		Str("source", ride.Source).
		Str("destination", ride.Destination).
		Int("seats", ride.SeatsAvailable).
		Msg("carpool ride offered")
	return &ride, nil
}

// Rides returns open rides, soonest departure first.
func (s *Service) Rides(ctx context.Context, limit int) ([]*CarpoolRide, error) {
	return s.repo.ListRides(ctx, limit)
}

// MatchRides returns open rides whose endpoints mention the requested
// source or destination, soonest departure first.
func (s *Service) MatchRides(ctx context.Context, source, destination string) ([]*CarpoolRide, error) {
	rides, err := s.repo.ListRides(ctx, 0)
	if err != nil {
		return nil, err
	}

	matched := make([]*CarpoolRide, 0, len(rides))
	for _, ride := range rides {
		if matchesEndpoint(ride.Source, source) || matchesEndpoint(ride.Destination, destination) {
			matched = append(matched, ride)
		}
	}
	return matched, nil
}

// JoinRide claims a seat on a ride.
func (s *Service) JoinRide(ctx context.Context, rideID string) (*CarpoolRide, error) {
	ride, err := s.repo.ReserveSeat(ctx, rideID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("ride_id", rideID).
		Int("seats_left", ride.SeatsAvailable).
		Msg("carpool seat reserved")
	return ride, nil
}

func matchesEndpoint(endpoint, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(endpoint), strings.ToLower(query))
}
