package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimind/agri-advisor/internal/facts"
)

func snapshotAt(loc facts.Coordinates, ts time.Time) facts.BundleSnapshot {
	return facts.BundleSnapshot{
		Location:  loc,
		Timestamp: ts,
		Bundle:    facts.FactBundle{Location: loc},
	}
}

func TestMemoryStoreHistoryNotFound(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	_, err := s.GetHistory(facts.Coordinates{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetLatest(facts.Coordinates{Lat: 1, Lon: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	loc := facts.Coordinates{Lat: 30.9, Lon: 75.8}

	now := time.Now().UTC()
	s.SaveSnapshot(loc, snapshotAt(loc, now.Add(-3*time.Minute)))
	s.SaveSnapshot(loc, snapshotAt(loc, now.Add(-2*time.Minute)))
	s.SaveSnapshot(loc, snapshotAt(loc, now.Add(-1*time.Minute)))

	history, err := s.GetHistory(loc)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, now.Add(-2*time.Minute), history[0].Timestamp)

	latest, err := s.GetLatest(loc)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-1*time.Minute), latest.Timestamp)
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, 10*time.Minute)
	loc := facts.Coordinates{Lat: 30.9, Lon: 75.8}

	now := time.Now().UTC()
	s.SaveSnapshot(loc, snapshotAt(loc, now.Add(-time.Hour)))
	s.SaveSnapshot(loc, snapshotAt(loc, now))

	history, err := s.GetHistory(loc)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, now, history[0].Timestamp)
}

func TestMemoryStoreSeparatesLocations(t *testing.T) {
	s := NewMemoryStore(10, 0)
	a := facts.Coordinates{Lat: 30.9, Lon: 75.8}
	b := facts.Coordinates{Lat: 28.6, Lon: 77.2}

	s.SaveSnapshot(a, snapshotAt(a, time.Now().UTC()))

	_, err := s.GetHistory(b)
	assert.ErrorIs(t, err, ErrNotFound)
}
