package breezometer

import (
	"testing"
	"time"
)

func TestSecondRounding(t *testing.T) {
	in := time.Date(2016, 9, 26, 15, 4, 5, 123456789, time.FixedZone("CDT", -5*3600))

	if got := formatTime(floorSecond(in)); got != "2016-09-26T20:04:05.000Z" {
		t.Fatalf("floor: got %s", got)
	}
	if got := formatTime(ceilSecond(in)); got != "2016-09-26T20:04:05.999Z" {
		t.Fatalf("ceil: got %s", got)
	}

	whole := time.Date(2016, 9, 26, 20, 4, 5, 0, time.UTC)
	if got := formatTime(ceilSecond(whole)); got != "2016-09-26T20:04:05.999Z" {
		t.Fatalf("ceil of whole second: got %s", got)
	}
}

func TestCurrentQuery(t *testing.T) {
	q := currentQuery(CurrentRequest{Lat: 43.067475, Lon: -89.392808})
	if q.Get("lat") != "43.067475" || q.Get("lon") != "-89.392808" {
		t.Fatalf("unexpected coordinates: %s", q.Encode())
	}
	if q.Has("lang") || q.Has("fields") || q.Has("key") {
		t.Fatalf("expected only coordinates, got %s", q.Encode())
	}

	q = currentQuery(CurrentRequest{Lang: LangEnglish, Fields: []Field{FieldBreezometerAQI, FieldDatetime}})
	if q.Get("lang") != "en" {
		t.Fatalf("expected lang en, got %q", q.Get("lang"))
	}
	if q.Get("fields") != "breezometer_aqi,datetime" {
		t.Fatalf("unexpected fields %q", q.Get("fields"))
	}
}

func TestHistoricalQuery(t *testing.T) {
	point := time.Date(2016, 9, 26, 10, 30, 15, 400e6, time.UTC)
	q := historicalQuery(HistoricalRequest{Datetime: point})
	if q.Get("datetime") != "2016-09-26T10:30:15.999Z" {
		t.Fatalf("unexpected datetime %q", q.Get("datetime"))
	}
	if q.Has("start_datetime") || q.Has("interval") {
		t.Fatalf("unexpected range params: %s", q.Encode())
	}

	q = historicalQuery(HistoricalRequest{Start: point, End: point.Add(time.Hour), Interval: 3})
	if q.Get("start_datetime") != "2016-09-26T10:30:15.000Z" {
		t.Fatalf("unexpected start %q", q.Get("start_datetime"))
	}
	if q.Get("end_datetime") != "2016-09-26T11:30:15.999Z" {
		t.Fatalf("unexpected end %q", q.Get("end_datetime"))
	}
	if q.Get("interval") != "3" {
		t.Fatalf("unexpected interval %q", q.Get("interval"))
	}
}

func TestForecastQuery(t *testing.T) {
	q := forecastQuery(ForecastRequest{Lat: 0, Lon: 0, Hours: 12})
	if q.Get("hours") != "12" || q.Get("lat") != "0" {
		t.Fatalf("unexpected query %s", q.Encode())
	}
	if q.Has("start_datetime") {
		t.Fatalf("unexpected range params: %s", q.Encode())
	}
}

// TestBackoff checks min(50ms * 2^n, 60s) for a wide range of retries.
func TestBackoff(t *testing.T) {
	for n := 0; n < 64; n++ {
		want := 60000
		if n < 20 {
			if ms := 50 << n; ms < want {
				want = ms
			}
		}
		if got := Backoff(n); got != time.Duration(want)*time.Millisecond {
			t.Fatalf("retry %d: expected %dms, got %v", n, want, got)
		}
	}

	if Backoff(10) != 51200*time.Millisecond {
		t.Fatalf("expected 51.2s before retry 10, got %v", Backoff(10))
	}
	if Backoff(11) != time.Minute {
		t.Fatalf("expected cap at retry 11, got %v", Backoff(11))
	}
}
