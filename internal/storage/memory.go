package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MemoryConfig holds configuration for the in-memory store.
type MemoryConfig struct {
	// Logger for store operations.
	Logger zerolog.Logger

	// MaxEntries caps the number of stored keys (default: 4096).
	// Writes beyond the cap are dropped with a warning, not an error.
	MaxEntries int

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// MemoryStore is an in-process Store backed by a map.
type MemoryStore struct {
	logger     zerolog.Logger
	maxEntries int
	clock      func() time.Time

	mu      sync.RWMutex
	entries map[string]Envelope
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	maxEntries := cfg.MaxEntries
	if maxEntries == 0 {
		maxEntries = 4096
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		logger:     cfg.Logger,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]Envelope),
	}
}

// Get returns the value for key, evicting it first if expired.
func (m *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	now := m.clock()

	m.mu.RLock()
	env, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if env.Expired(now) {
		m.mu.Lock()
		// Re-check under the write lock; a Set may have replaced it.
		if cur, still := m.entries[key]; still && cur.Expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return env.Value, true, nil
}

// Set stores value under key. When the store is at capacity the write is
// dropped and logged so callers keep working without the cache.
func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	env, err := newEnvelope(value, ttl, m.clock())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.logger.Warn().
			Str("key", key).
			Int("max_entries", m.maxEntries).
			Msg("memory store at capacity, dropping write")
		return nil
	}
	m.entries[key] = env
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]Envelope)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
