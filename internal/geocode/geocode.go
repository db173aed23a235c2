package geocode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/air-quality-client/internal/airquality"
)

var errNoAPIKey = errors.New("geocoder api key is not configured")

// Resolver turns a city and country into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, city, country string) (lat, lon float64, err error)
}

// GoogleResolver resolves addresses with the Google Maps geocoding API.
type GoogleResolver struct {
	apiKey string
}

var keyMu sync.Mutex

// NewGoogleResolver creates a resolver using apiKey.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	return &GoogleResolver{apiKey: apiKey}
}

// Resolve looks up city,country. The geocoder package reads its key from a
// package variable, so lookups are serialized.
func (g *GoogleResolver) Resolve(ctx context.Context, city, country string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, errNoAPIKey
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	keyMu.Lock()
	defer keyMu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s,%s: %w", city, country, err)
	}
	return loc.Latitude, loc.Longitude, nil
}

// ResolveLocations fills in coordinates for every location that only has a
// city and country. Locations with coordinates are returned unchanged.
func ResolveLocations(ctx context.Context, r Resolver, locs []airquality.Location) ([]airquality.Location, error) {
	out := make([]airquality.Location, 0, len(locs))
	for _, l := range locs {
		if !l.Resolved {
			if r == nil {
				return nil, fmt.Errorf("location %s needs geocoding: %w", l.Key(), errNoAPIKey)
			}
			lat, lon, err := r.Resolve(ctx, l.City, l.Country)
			if err != nil {
				return nil, fmt.Errorf("location %s: %w", l.Key(), err)
			}
			l.Lat, l.Lon, l.Resolved = lat, lon, true
		}
		out = append(out, l)
	}
	return out, nil
}
