package store

import (
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/air-quality-client/internal/airquality"
)

// ErrNotFound means the store holds no readings for the location, or none
// inside the requested window.
var ErrNotFound = errors.New("no air quality readings for location")

// MemoryStore keeps the polled air quality readings of every tracked
// location in memory. Readings are appended in poll order, so each
// location's slice is ordered by FetchedAt.
type MemoryStore struct {
	mu       sync.RWMutex
	readings map[string][]airquality.Snapshot

	// keep caps the readings per location, 0 keeps all of them.
	keep int
	// ttl drops readings fetched longer ago than this, 0 keeps them forever.
	ttl time.Duration

	now func() time.Time
}

// NewMemoryStore returns a store keeping at most keep readings per location,
// none older than ttl. Zero (or a negative value) disables either limit.
func NewMemoryStore(keep int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		readings: make(map[string][]airquality.Snapshot),
		keep:     keep,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SaveSnapshot records a reading for loc and prunes what falls outside the
// retention limits.
func (s *MemoryStore) SaveSnapshot(loc airquality.Location, snapshot airquality.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loc.Key()
	s.readings[key] = s.prune(append(s.readings[key], snapshot))
}

// prune drops the oldest readings first: expired ones, then any beyond keep.
func (s *MemoryStore) prune(rs []airquality.Snapshot) []airquality.Snapshot {
	if s.ttl > 0 {
		cutoff := s.now().Add(-s.ttl)
		fresh := sort.Search(len(rs), func(i int) bool {
			return !rs[i].FetchedAt.Before(cutoff)
		})
		rs = rs[fresh:]
	}
	if s.keep > 0 && len(rs) > s.keep {
		rs = rs[len(rs)-s.keep:]
	}
	return rs
}

// GetLatest returns the last reading polled for loc.
func (s *MemoryStore) GetLatest(loc airquality.Location) (airquality.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs := s.readings[loc.Key()]
	if len(rs) == 0 {
		return airquality.Snapshot{}, ErrNotFound
	}
	return rs[len(rs)-1], nil
}

// GetRange returns the readings for loc whose report time lies in
// [from, to], ordered by report time. The provider may revise a report, so
// poll order and report order can differ.
func (s *MemoryStore) GetRange(loc airquality.Location, from, to time.Time) ([]airquality.Snapshot, error) {
	s.mu.RLock()
	var window []airquality.Snapshot
	for _, r := range s.readings[loc.Key()] {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		window = append(window, r)
	}
	s.mu.RUnlock()

	if len(window) == 0 {
		return nil, ErrNotFound
	}
	slices.SortStableFunc(window, func(a, b airquality.Snapshot) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return window, nil
}
