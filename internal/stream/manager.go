package stream

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/metrics"
)

// Manager registers open streams by ID for the HTTP surface and the metrics
// collector. Streams register after Open and deregister on Remove/CloseAll.
type Manager struct {
	mu      sync.RWMutex
	streams map[string]*Stream
	log     zerolog.Logger
}

// NewManager creates an empty manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		streams: make(map[string]*Stream),
		log:     log.With().Str("component", "streams").Logger(),
	}
}

// Add registers an open stream. Duplicate IDs are rejected.
func (m *Manager) Add(s *Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := s.Config().ID
	if _, exists := m.streams[id]; exists {
		return fmt.Errorf("stream %q already registered", id)
	}
	m.streams[id] = s
	m.log.Info().Str("stream", id).Msg("stream registered")
	return nil
}

// Get looks a stream up by ID.
func (m *Manager) Get(id string) (*Stream, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.streams[id]
	return s, ok
}

// List returns all streams ordered by ID.
func (m *Manager) List() []*Stream {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config().ID < out[j].Config().ID })
	return out
}

// Count returns the number of registered streams.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Remove closes a stream and drops it from the registry.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.streams[id]
	delete(m.streams, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	return true
}

// CloseAll closes every stream. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	streams := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		streams = append(streams, s)
	}
	m.streams = make(map[string]*Stream)
	m.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}
}

// StreamStats implements metrics.StatsSource for scrape-time gauges.
func (m *Manager) StreamStats() []metrics.StreamStats {
	streams := m.List()
	out := make([]metrics.StreamStats, 0, len(streams))
	for _, s := range streams {
		bs := s.BufferStats()
		out = append(out, metrics.StreamStats{
			ID:             s.Config().ID,
			BufferSize:     bs.Size,
			BufferCapacity: bs.Capacity,
			SamplesEvicted: bs.SamplesEvicted,
			BlocksIngested: s.Blocks(),
		})
	}
	return out
}
