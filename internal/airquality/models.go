package airquality

import (
	"strconv"
	"time"

	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

// Location is a tracked place. Either Lat/Lon are known, or City/Country
// are set and the coordinates still have to be geocoded.
type Location struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`

	// Resolved is false until Lat/Lon are known.
	Resolved bool `json:"-"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	if l.Name != "" {
		return l.Name
	}
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lon, 'f', -1, 64)
}

// Snapshot is one recorded air quality reading for a location.
type Snapshot struct {
	Location Location `json:"location"`
	// Timestamp is the report time, or FetchedAt when the report has none.
	Timestamp time.Time `json:"timestamp"` // always UTC
	FetchedAt time.Time `json:"fetchedAt"`

	// Supported is false when the provider has no data for the location.
	Supported bool `json:"supported"`
	DataValid bool `json:"dataValid"`

	AQI               any    `json:"aqi,omitempty"`
	Description       string `json:"description,omitempty"`
	Color             string `json:"color,omitempty"`
	DominantPollutant string `json:"dominantPollutant,omitempty"`
	CountryName       string `json:"countryName,omitempty"`
	CountryAQI        any    `json:"countryAqi,omitempty"`
}

// SnapshotFromResult converts a current conditions result into a Snapshot.
// A nil result means the location is unsupported.
func SnapshotFromResult(loc Location, res *breezometer.Result, fetchedAt time.Time) Snapshot {
	snap := Snapshot{
		Location:  loc,
		FetchedAt: fetchedAt.UTC(),
		Supported: res != nil,
	}

	if rep, ok := res.First(); ok {
		snap.Timestamp = rep.Timestamp
		snap.DataValid = rep.DataValid != nil && *rep.DataValid
		snap.AQI = rep.BreezometerAQI
		snap.Description = rep.BreezometerDescription
		snap.Color = rep.BreezometerColor
		snap.DominantPollutant = rep.DominantPollutantCanonicalName
		snap.CountryName = rep.CountryName
		snap.CountryAQI = rep.CountryAQI
	}

	if snap.Timestamp.IsZero() {
		snap.Timestamp = snap.FetchedAt
	}
	return snap
}
