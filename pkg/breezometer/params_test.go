package breezometer

import (
	"encoding/json"
	"math"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func TestDecodeCurrentCoercesNumbers(t *testing.T) {
	cases := []Params{
		{"lat": "43.067475", "lon": "-89.392808"},
		{"lat": 43.067475, "lon": -89.392808},
		{"lat": json.Number("43.067475"), "lon": json.Number("-89.392808")},
	}
	for _, p := range cases {
		r, err := DecodeCurrent(p)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", p, err)
		}
		if r.Lat != 43.067475 || r.Lon != -89.392808 {
			t.Fatalf("unexpected coordinates %v,%v", r.Lat, r.Lon)
		}
	}

	r, err := DecodeCurrent(Params{"lat": 1, "lon": int64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Lat != 1 || r.Lon != 2 {
		t.Fatalf("unexpected coordinates %v,%v", r.Lat, r.Lon)
	}
}

func TestDecodeRejectsBadBags(t *testing.T) {
	cases := []struct {
		name  string
		p     Params
		field string
	}{
		{"nil bag", nil, ""},
		{"missing lat", Params{"lon": 1}, "lat"},
		{"null lat", Params{"lat": nil, "lon": 1}, "lat"},
		{"lat not a number", Params{"lat": "foo", "lon": 1}, "lat"},
		{"lat empty string", Params{"lat": "", "lon": 1}, "lat"},
		{"lat NaN string", Params{"lat": "NaN", "lon": 1}, "lat"},
		{"lon bool", Params{"lat": 1, "lon": true}, "lon"},
		{"key supplied", Params{"lat": 1, "lon": 1, "key": "bar"}, "key"},
		{"unknown key", Params{"lat": 1, "lon": 1, "hours": 3}, "hours"},
		{"empty fields", Params{"lat": 1, "lon": 1, "fields": []string{}}, "fields"},
		{"blank fields", Params{"lat": 1, "lon": 1, "fields": " , "}, "fields"},
		{"fields of numbers", Params{"lat": 1, "lon": 1, "fields": []any{1}}, "fields"},
		{"lang number", Params{"lat": 1, "lon": 1, "lang": 5}, "lang"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCurrent(tc.p)
			if got := validationField(t, err); got != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, got, err)
			}
		})
	}
}

func TestDecodeFieldsAndLang(t *testing.T) {
	want := []Field{FieldBreezometerAQI, FieldDatetime}
	for _, v := range []any{
		"breezometer_aqi,datetime",
		[]string{"breezometer_aqi", "datetime"},
		[]any{"breezometer_aqi", "datetime"},
		[]Field{FieldBreezometerAQI, FieldDatetime},
	} {
		r, err := DecodeCurrent(Params{"lat": 0, "lon": 0, "fields": v, "lang": "he"})
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", v, err)
		}
		if !reflect.DeepEqual(r.Fields, want) {
			t.Fatalf("expected %v, got %v", want, r.Fields)
		}
		if r.Lang != LangHebrew {
			t.Fatalf("expected he, got %q", r.Lang)
		}
	}

	r, err := DecodeCurrent(Params{"lat": 0, "lon": 0, "lang": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Lang != "" {
		t.Fatalf("expected empty lang to be unset, got %q", r.Lang)
	}
}

func TestDecodeHistoricalAliases(t *testing.T) {
	start := time.Date(2016, 9, 25, 0, 0, 0, 0, time.UTC)
	r, err := DecodeHistorical(Params{
		"lat":       "1",
		"lon":       "2",
		"startDate": "2016-09-25T00:00:00Z",
		"endDate":   start.Add(time.Hour),
		"interval":  "4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(start) || !r.End.Equal(start.Add(time.Hour)) {
		t.Fatalf("unexpected range %v - %v", r.Start, r.End)
	}
	if r.Interval != 4 {
		t.Fatalf("expected interval 4, got %d", r.Interval)
	}

	r, err = DecodeHistorical(Params{"lat": 1, "lon": 2, "dateTime": "1474848000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Datetime.Equal(time.Unix(1474848000, 0)) {
		t.Fatalf("unexpected datetime %v", r.Datetime)
	}

	_, err = DecodeHistorical(Params{"lat": 1, "lon": 2, "dateTime": "yesterday"})
	if got := validationField(t, err); got != "datetime" {
		t.Fatalf("expected datetime, got %q", got)
	}

	_, err = DecodeHistorical(Params{"lat": 1, "lon": 2, "datetime": "1474848000", "dateTime": "1474848000"})
	if got := validationField(t, err); got != "datetime" {
		t.Fatalf("expected duplicate datetime to fail, got %q", got)
	}
}

func TestDecodeForecastCounts(t *testing.T) {
	r, err := DecodeForecast(Params{"lat": 0, "lon": 0, "hours": "24"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Hours != 24 {
		t.Fatalf("expected 24 hours, got %d", r.Hours)
	}

	for _, hours := range []any{0, "25", 1.5, "eight"} {
		_, err := DecodeForecast(Params{"lat": 0, "lon": 0, "hours": hours})
		if got := validationField(t, err); got != "hours" {
			t.Fatalf("hours=%v: expected hours error, got %q", hours, got)
		}
	}

	_, err = DecodeForecast(Params{"lat": 0, "lon": 0, "interval": 2})
	if got := validationField(t, err); got != "interval" {
		t.Fatalf("expected interval to be rejected for forecasts, got %q", got)
	}
}

func TestParamsFromValues(t *testing.T) {
	v, err := url.ParseQuery("lat=1.5&lon=2&fields=datetime&fields=pollutants&startDate=2016-09-25T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := ParamsFromValues(v)
	if p["lat"] != "1.5" {
		t.Fatalf("unexpected lat %v", p["lat"])
	}
	if !reflect.DeepEqual(p["fields"], []string{"datetime", "pollutants"}) {
		t.Fatalf("unexpected fields %v", p["fields"])
	}

	r, err := DecodeHistorical(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fields) != 2 || r.Start.IsZero() {
		t.Fatalf("unexpected request %+v", r)
	}
}

func TestDecodeRejectsOutOfRangeTimestamps(t *testing.T) {
	for _, v := range []any{1e19, -1e19, "-99999999999999999", "1e400", math.Inf(1), time.Time{}} {
		_, err := DecodeHistorical(Params{"lat": 0, "lon": 0, "datetime": v})
		if got := validationField(t, err); got != "datetime" {
			t.Fatalf("datetime=%v: expected datetime error, got %q (%v)", v, got, err)
		}
	}

	r, err := DecodeHistorical(Params{"lat": 0, "lon": 0, "datetime": 1474848000.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Unix(1474848000, 5e8); !r.Datetime.Equal(want) {
		t.Fatalf("expected %v, got %v", want, r.Datetime)
	}
}

func TestDecodeTrimsAndRejectsNullPointers(t *testing.T) {
	r, err := DecodeForecast(Params{"lat": " 1.5 ", "lon": json.Number("2"), "hours": " 3 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Lat != 1.5 || r.Lon != 2 || r.Hours != 3 {
		t.Fatalf("unexpected request %+v", r)
	}

	var missing *time.Time
	_, err = DecodeForecast(Params{"lat": 0, "lon": 0, "start_datetime": missing, "end_datetime": "2030-01-01"})
	if got := validationField(t, err); got != "start_datetime" {
		t.Fatalf("expected start_datetime error, got %q (%v)", got, err)
	}

	_, err = DecodeHistorical(Params{"lat": 0, "lon": 0, "datetime": true})
	if got := validationField(t, err); got != "datetime" {
		t.Fatalf("expected datetime error for a boolean, got %q", got)
	}
}
