package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a caller exceeds the booking attempt limit.
var ErrRateLimited = errors.New("security: rate limit exceeded")

// Booking attempt limits. The window is fixed, not sliding: the first
// attempt opens a window and the counter resets once it closes.
const (
	DefaultMaxAttempts = 15
	DefaultWindow      = 60 * time.Second
)

// RateLimiterConfig holds configuration for the booking rate limiter.
type RateLimiterConfig struct {
	// MaxAttempts per window (default: 15).
	MaxAttempts int

	// Window length (default: 60s).
	Window time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// RateLimiter enforces a fixed-window attempt limit per key.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	clock       func() time.Time

	mu      sync.Mutex
	windows map[string]*attemptWindow
	denials uint64
}

type attemptWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a new fixed-window rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	window := cfg.Window
	if window == 0 {
		window = DefaultWindow
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clock,
		windows:     make(map[string]*attemptWindow),
	}
}

// Allow records an attempt for key and returns ErrRateLimited once the
// key has used up its attempts for the current window.
func (l *RateLimiter) Allow(key string) error {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &attemptWindow{start: now, count: 1}
		return nil
	}

	if w.count >= l.maxAttempts {
		l.denials++
		return ErrRateLimited
	}
	w.count++
	return nil
}

// Remaining reports how many attempts key has left in its current window.
func (l *RateLimiter) Remaining(key string) int {
	return l.Status(key).Remaining
}

// Status describes a key's position in its current window.
type Status struct {
	// Limit is the attempt budget per window.
	Limit int
	// Remaining is how many attempts are left in the current window.
	Remaining int
	// ResetAt is when the current window closes. For a key with no open
	// window it is the zero time.
	ResetAt time.Time
}

// Status reports the limit, remaining attempts and window reset time for key.
func (l *RateLimiter) Status(key string) Status {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		return Status{Limit: l.maxAttempts, Remaining: l.maxAttempts}
	}
	return Status{
		Limit:     l.maxAttempts,
		Remaining: l.maxAttempts - w.count,
		ResetAt:   w.start.Add(l.window),
	}
}

// Denials returns the total number of rejected attempts since startup.
func (l *RateLimiter) Denials() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.denials
}
