package store

import (
	"errors"
	"sync"
	"time"

	"github.com/agrimind/agri-advisor/internal/facts"
)

// ErrNotFound is returned when no snapshots are available for a location.
var ErrNotFound = errors.New("no snapshots for location")

// MemoryStore is a concurrency-safe in-memory history of assembled fact
// bundles, keyed by coordinates. It backs the tracked-location history
// endpoint only; request-path assembly never reads from it.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: time-ordered snapshots
	data map[string][]facts.BundleSnapshot

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]facts.BundleSnapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc facts.Coordinates, snap facts.BundleSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snap)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history); i++ {
			if !history[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history = history[i:]
	}

	s.data[key] = history
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc facts.Coordinates) (facts.BundleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return facts.BundleSnapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetHistory returns a copy of all retained snapshots for a location,
// ordered oldest first.
func (s *MemoryStore) GetHistory(loc facts.Coordinates) ([]facts.BundleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	out := make([]facts.BundleSnapshot, len(history))
	copy(out, history)
	return out, nil
}
