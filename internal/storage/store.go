// Package storage provides a TTL-aware key-value store used for route caches,
// user profiles and offline queues. Values are wrapped in an envelope that
// records expiry and last-sync time so backends stay interchangeable.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("storage: backend unavailable")

// Envelope wraps every stored value with bookkeeping metadata.
type Envelope struct {
	Value    json.RawMessage `json:"value"`
	Expiry   *int64          `json:"expiry,omitempty"` // unix millis, nil means no expiry
	SyncedAt int64           `json:"syncedAt"`         // unix millis
}

// Expired reports whether the envelope's expiry has passed at now.
func (e Envelope) Expired(now time.Time) bool {
	return e.Expiry != nil && now.UnixMilli() > *e.Expiry
}

// Store is a TTL-aware key-value store.
//
// Get returns ok=false for absent, expired, or unreadable entries; expired
// and unreadable entries are evicted on read. Set with ttl <= 0 stores the
// value without expiry. Writes that fail due to capacity are absorbed by the
// backend (logged, not surfaced) so callers degrade instead of erroring.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// GetJSON reads key from s and unmarshals it into dest.
// Returns false when the key is absent or the value does not fit dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Treat shape drift like a missing entry so callers refetch.
		_ = s.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

func newEnvelope(value any, ttl time.Duration, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		Value:    raw,
		SyncedAt: now.UnixMilli(),
	}
	if ttl > 0 {
		expiry := now.Add(ttl).UnixMilli()
		env.Expiry = &expiry
	}
	return env, nil
}
