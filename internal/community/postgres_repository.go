package community

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL community repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateReport stores a new report.
func (r *PostgresRepository) CreateReport(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO community_reports (
			id, user_name, mode, location, issue, upvotes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.UserName,
		report.Mode,
		report.Location,
		report.Issue,
		report.Upvotes,
		report.CreatedAt,
	)
	return err
}

// ListReports retrieves reports, newest first.
func (r *PostgresRepository) ListReports(ctx context.Context, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_name, mode, location, issue, upvotes, created_at
		FROM community_reports
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var report Report
		err := rows.Scan(
			&report.ID,
			&report.UserName,
			&report.Mode,
			&report.Location,
			&report.Issue,
			&report.Upvotes,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// UpvoteReport increments a report's upvote count.
func (r *PostgresRepository) UpvoteReport(ctx context.Context, id string) (*Report, error) {
	query := `
		UPDATE community_reports
		SET upvotes = upvotes + 1
		WHERE id = $1
		RETURNING id, user_name, mode, location, issue, upvotes, created_at
	`

	var report Report
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.UserName,
		&report.Mode,
		&report.Location,
		&report.Issue,
		&report.Upvotes,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// CreateRide stores a new carpool ride.
func (r *PostgresRepository) CreateRide(ctx context.Context, ride *CarpoolRide) error {
	query := `
		INSERT INTO carpool_rides (
			id, driver_name, source, destination,
			departure_time, seats_available, cost, rating, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		ride.ID,
		ride.DriverName,
		ride.Source,
		ride.Destination,
		ride.DepartureTime,
		ride.SeatsAvailable,
		ride.Cost,
		ride.Rating,
		ride.CreatedAt,
	)
	return err
}

// GetRide retrieves a ride by ID.
func (r *PostgresRepository) GetRide(ctx context.Context, id string) (*CarpoolRide, error) {
	query := `
		SELECT id, driver_name, source, destination,
			departure_time, seats_available, cost, rating, created_at
		FROM carpool_rides
		WHERE id = $1
	`

	return r.scanRide(r.pool.QueryRow(ctx, query, id))
}

// ListRides retrieves rides with seats left, soonest departure first.
func (r *PostgresRepository) ListRides(ctx context.Context, limit int) ([]*CarpoolRide, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, driver_name, source, destination,
			departure_time, seats_available, cost, rating, created_at
		FROM carpool_rides
		WHERE seats_available > 0
		ORDER BY departure_time ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*CarpoolRide
	for rows.Next() {
		var ride CarpoolRide
		err := rows.Scan(
			&ride.ID,
			&ride.DriverName,
			&ride.Source,
			&ride.Destination,
			&ride.DepartureTime,
			&ride.SeatsAvailable,
			&ride.Cost,
			&ride.Rating,
			&ride.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rides = append(rides, &ride)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rides, nil
}

// ReserveSeat atomically claims one seat on a ride.
func (r *PostgresRepository) ReserveSeat(ctx context.Context, id string) (*CarpoolRide, error) {
	query := `
		UPDATE carpool_rides
		SET seats_available = seats_available - 1
		WHERE id = $1 AND seats_available > 0
		RETURNING id, driver_name, source, destination,
			departure_time, seats_available, cost, rating, created_at
	`

	ride, err := r.scanRide(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, ErrRideNotFound) {
		return nil, err
	}

	// No row updated: distinguish a full ride from a missing one.
	if _, getErr := r.GetRide(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNoSeats
}

func (r *PostgresRepository) scanRide(row pgx.Row) (*CarpoolRide, error) {
	var ride CarpoolRide
	err := row.Scan(
		&ride.ID,
		&ride.DriverName,
		&ride.Source,
		&ride.Destination,
		&ride.DepartureTime,
		&ride.SeatsAvailable,
		&ride.Cost,
		&ride.Rating,
		&ride.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return &ride, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
