// Package connectivity tracks upstream reachability so search and booking
// can switch between live, degraded and offline behaviour.
package connectivity

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener is notified on every connectivity transition.
type Listener func(online bool)

// Monitor holds the current online/offline state and fans out transitions
// to subscribers. State changes are reported by callers that observe
// provider failures or recoveries; the monitor itself does not probe.
type Monitor struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	online    bool
	nextID    int
	listeners map[int]Listener
}

// NewMonitor creates a monitor that starts online.
func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{
		logger:    logger,
		online:    true,
		listeners: make(map[int]Listener),
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a connectivity transition. Listeners run synchronously
// and only on actual state changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	m.logger.Info().Bool("online", online).Msg("connectivity changed")
	for _, l := range listeners {
		l(online)
	}
}

// Subscribe registers a listener and returns an unsubscribe function.
func (m *Monitor) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}
