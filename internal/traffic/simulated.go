package traffic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omniroute/omniroute/internal/transit"
)

// cityZones are the monitored areas reported for every city.
var cityZones = []string{
	"Central Business District",
	"Airport Road",
	"Suburban North",
	"Tech Corridor",
	"Old City",
}

var densities = []transit.TrafficStatus{
	transit.TrafficLow,
	transit.TrafficModerate,
	transit.TrafficHeavy,
	transit.TrafficGridlock,
}

var trends = []Trend{TrendImproving, TrendWorsening, TrendStable}

// SimulatedProvider generates plausible congestion readings, standing in
// for a commercial traffic feed.
type SimulatedProvider struct {
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Provider = (*SimulatedProvider)(nil)

// SimulatedConfig holds configuration for the simulated provider.
type SimulatedConfig struct {
	// Latency delays each call to mimic an upstream API (default: none).
	Latency time.Duration

	// Seed fixes the random source, for tests. Zero seeds from the clock.
	Seed int64
}

// NewSimulatedProvider creates a simulated traffic provider.
func NewSimulatedProvider(cfg SimulatedConfig) *SimulatedProvider {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedProvider{
		latency: cfg.Latency,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Name implements Provider.
func (p *SimulatedProvider) Name() string {
	return "simulated"
}

// CityTraffic returns a fresh random reading per zone. Every call produces
// new values, matching how a polling feed behaves.
func (p *SimulatedProvider) CityTraffic(ctx context.Context, city string) ([]Zone, error) {
	if city == "" {
		return nil, ErrNoData
	}

	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	zones := make([]Zone, 0, len(cityZones))
	for _, name := range cityZones {
		zones = append(zones, Zone{
			ID:      uuid.NewString(),
			Name:    name,
			Density: densities[p.rng.Intn(len(densities))],
			Score:   p.rng.Intn(100),
			Trend:   trends[p.rng.Intn(len(trends))],
		})
	}
	return zones, nil
}
