package airquality

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

// ErrUnknownLocation is returned when a location name is not tracked.
var ErrUnknownLocation = errors.New("unknown location")

// Service polls tracked locations, records their readings and forwards
// ad-hoc queries to the Source.
type Service struct {
	store     Store
	source    Source
	locations map[string]Location
	order     []string
	lang      breezometer.Lang
	now       func() time.Time
}

// NewService creates a new Service tracking locs. Locations must be resolved.
func NewService(store Store, source Source, locs []Location, lang breezometer.Lang) *Service {
	s := &Service{
		store:     store,
		source:    source,
		locations: make(map[string]Location, len(locs)),
		lang:      lang,
		now:       time.Now,
	}
	for _, l := range locs {
		if _, dup := s.locations[l.Key()]; !dup {
			s.order = append(s.order, l.Key())
		}
		s.locations[l.Key()] = l
	}
	return s
}

// Locations returns the tracked locations in configuration order.
func (s *Service) Locations() []Location {
	locs := make([]Location, 0, len(s.order))
	for _, k := range s.order {
		locs = append(locs, s.locations[k])
	}
	return locs
}

// Location looks up a tracked location by key.
func (s *Service) Location(key string) (Location, error) {
	l, ok := s.locations[key]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, key)
	}
	return l, nil
}

// Poll fetches current conditions for loc and stores a snapshot. Locations
// the provider does not cover are stored with Supported=false so the history
// shows they were polled.
func (s *Service) Poll(ctx context.Context, loc Location) (Snapshot, error) {
	res, err := s.source.CurrentConditions(ctx, breezometer.CurrentRequest{
		Lat:  loc.Lat,
		Lon:  loc.Lon,
		Lang: s.lang,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("poll %s: %w", loc.Key(), err)
	}

	snap := SnapshotFromResult(loc, res, s.now())
	if !snap.Supported {
		log.Printf("INFO: location %s is not supported by the provider", loc.Key())
	}
	s.store.SaveSnapshot(loc, snap)
	return snap, nil
}

// PollAll polls every tracked location concurrently. One failing location
// does not stop the others; all failures are joined into the returned error.
func (s *Service) PollAll(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, loc := range s.Locations() {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()

			if _, err := s.Poll(ctx, loc); err != nil {
				log.Printf("ERROR: %v", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(loc)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Call forwards a loosely typed query to the Source.
func (s *Service) Call(ctx context.Context, op breezometer.Operation, p breezometer.Params) (*breezometer.Result, error) {
	return s.source.Call(ctx, op, p)
}

// GetLatest returns the most recent snapshot recorded for the named location.
func (s *Service) GetLatest(key string) (Snapshot, error) {
	loc, err := s.Location(key)
	if err != nil {
		return Snapshot{}, err
	}
	return s.store.GetLatest(loc)
}

// GetRange returns the snapshots recorded for the named location between
// from and to, inclusive.
func (s *Service) GetRange(key string, from, to time.Time) ([]Snapshot, error) {
	loc, err := s.Location(key)
	if err != nil {
		return nil, err
	}
	return s.store.GetRange(loc, from, to)
}
