package community

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	reports map[string]*Report
	rides   map[string]*CarpoolRide
}

// NewInMemoryRepository creates a new in-memory community repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		reports: make(map[string]*Report),
		rides:   make(map[string]*CarpoolRide),
	}
}

// CreateReport stores a new report.
func (r *InMemoryRepository) CreateReport(_ context.Context, report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *report
	r.reports[report.ID] = &cpy
	return nil
}

// ListReports retrieves reports, newest first.
func (r *InMemoryRepository) ListReports(_ context.Context, limit int) ([]*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := make([]*Report, 0, len(r.reports))
	for _, rep := range r.reports {
		cpy := *rep
		reports = append(reports, &cpy)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// UpvoteReport increments a report's upvote count.
func (r *InMemoryRepository) UpvoteReport(_ context.Context, id string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	rep.Upvotes++

	cpy := *rep
	return &cpy, nil
}

// CreateRide stores a new carpool ride.
func (r *InMemoryRepository) CreateRide(_ context.Context, ride *CarpoolRide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *ride
	r.rides[ride.ID] = &cpy
	return nil
}

// GetRide retrieves a ride by ID.
func (r *InMemoryRepository) GetRide(_ context.Context, id string) (*CarpoolRide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, ErrRideNotFound
	}

	cpy := *ride
	return &cpy, nil
}

// ListRides retrieves rides with seats left, soonest departure first.
func (r *InMemoryRepository) ListRides(_ context.Context, limit int) ([]*CarpoolRide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rides := make([]*CarpoolRide, 0, len(r.rides))
	for _, ride := range r.rides {
		if ride.SeatsAvailable <= 0 {
			continue
		}
		cpy := *ride
		rides = append(rides, &cpy)
	}
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].DepartureTime.Before(rides[j].DepartureTime)
	})

	if limit > 0 && len(rides) > limit {
		rides = rides[:limit]
	}
	return rides, nil
}

// ReserveSeat claims one seat on a ride.
func (r *InMemoryRepository) ReserveSeat(_ context.Context, id string) (*CarpoolRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, ErrRideNotFound
	}
	if ride.SeatsAvailable <= 0 {
		return nil, ErrNoSeats
	}
	ride.SeatsAvailable--

	cpy := *ride
	return &cpy, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
