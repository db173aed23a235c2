package airquality_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/air-quality-client/internal/airquality"
	"github.com/i474232898/air-quality-client/internal/store"
	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

type fakeSource struct {
	mu       sync.Mutex
	requests []breezometer.CurrentRequest
	results  map[float64]*breezometer.Result // keyed by latitude
	errs     map[float64]error
}

func (f *fakeSource) CurrentConditions(_ context.Context, r breezometer.CurrentRequest) (*breezometer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)
	if err := f.errs[r.Lat]; err != nil {
		return nil, err
	}
	return f.results[r.Lat], nil
}

func (f *fakeSource) Call(context.Context, breezometer.Operation, breezometer.Params) (*breezometer.Result, error) {
	return nil, errors.New("not implemented")
}

func boolPtr(b bool) *bool { return &b }

func TestPollStoresSnapshot(t *testing.T) {
	reportTime := time.Date(2016, 9, 26, 19, 0, 0, 0, time.UTC)
	src := &fakeSource{results: map[float64]*breezometer.Result{
		43.067475: {Reports: []breezometer.Report{{
			Datetime:                       "2016-09-26T19:00:00Z",
			Timestamp:                      reportTime,
			DataValid:                      boolPtr(true),
			BreezometerAQI:                 float64(64),
			BreezometerDescription:         "Fair Air Quality",
			DominantPollutantCanonicalName: "pm10",
		}}},
	}}
	mem := store.NewMemoryStore(10, 0)
	madison := airquality.Location{Name: "madison", Lat: 43.067475, Lon: -89.392808, Resolved: true}
	svc := airquality.NewService(mem, src, []airquality.Location{madison}, breezometer.LangEnglish)

	snap, err := svc.Poll(context.Background(), madison)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Supported || !snap.DataValid || snap.DominantPollutant != "pm10" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.Timestamp.Equal(reportTime) {
		t.Fatalf("expected report timestamp, got %v", snap.Timestamp)
	}
	if src.requests[0].Lang != breezometer.LangEnglish {
		t.Fatalf("expected configured language to be sent")
	}

	latest, err := svc.GetLatest("madison")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.AQI != float64(64) {
		t.Fatalf("unexpected stored aqi %v", latest.AQI)
	}
}

func TestPollUnsupportedLocation(t *testing.T) {
	src := &fakeSource{}
	mem := store.NewMemoryStore(10, 0)
	nowhere := airquality.Location{Name: "nowhere", Lat: -80, Lon: 10, Resolved: true}
	svc := airquality.NewService(mem, src, []airquality.Location{nowhere}, "")

	snap, err := svc.Poll(context.Background(), nowhere)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Supported {
		t.Fatalf("expected unsupported snapshot")
	}
	if snap.Timestamp.IsZero() || !snap.Timestamp.Equal(snap.FetchedAt) {
		t.Fatalf("expected timestamp to fall back to fetch time, got %+v", snap)
	}
}

func TestPollAllJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{
		results: map[float64]*breezometer.Result{1: {}},
		errs:    map[float64]error{2: boom},
	}
	mem := store.NewMemoryStore(10, 0)
	locs := []airquality.Location{
		{Name: "ok", Lat: 1, Lon: 1, Resolved: true},
		{Name: "bad", Lat: 2, Lon: 2, Resolved: true},
	}
	svc := airquality.NewService(mem, src, locs, "")

	err := svc.PollAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if _, err := svc.GetLatest("ok"); err != nil {
		t.Fatalf("expected healthy location to be stored, got %v", err)
	}
	if _, err := svc.GetLatest("bad"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for failed location, got %v", err)
	}
}

func TestUnknownLocation(t *testing.T) {
	svc := airquality.NewService(store.NewMemoryStore(1, 0), &fakeSource{}, nil, "")
	if _, err := svc.GetLatest("atlantis"); !errors.Is(err, airquality.ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
}

func TestLocationKey(t *testing.T) {
	if k := (airquality.Location{Lat: 43.5, Lon: -89.25}).Key(); k != "43.5,-89.25" {
		t.Fatalf("unexpected key %q", k)
	}
	if k := (airquality.Location{Name: "madison", Lat: 43.5}).Key(); k != "madison" {
		t.Fatalf("unexpected key %q", k)
	}
}
