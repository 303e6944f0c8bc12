package community

import "context"

// Repository defines the interface for community data persistence.
type Repository interface {
	// CreateReport stores a new report.
	CreateReport(ctx context.Context, report *Report) error

	// ListReports retrieves reports, newest first, up to limit.
	ListReports(ctx context.Context, limit int) ([]*Report, error)

	// UpvoteReport increments a report's upvote count and returns the
	// updated report. Returns ErrReportNotFound if it doesn't exist.
	UpvoteReport(ctx context.Context, id string) (*Report, error)

	// CreateRide stores a new carpool ride.
	CreateRide(ctx context.Context, ride *CarpoolRide) error

	// GetRide retrieves a ride by ID.
	GetRide(ctx context.Context, id string) (*CarpoolRide, error)

	// ListRides retrieves rides with seats left, soonest departure first.
	ListRides(ctx context.Context, limit int) ([]*CarpoolRide, error)

	// ReserveSeat atomically claims one seat on a ride and returns the
	// updated ride. Returns ErrNoSeats when the ride is full.
	ReserveSeat(ctx context.Context, id string) (*CarpoolRide, error)
}
