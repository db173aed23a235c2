package breezometer

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// timeLayout matches what the API echoes back: UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// floorSecond truncates t to the start of its second, in UTC.
func floorSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// ceilSecond moves t to the last millisecond of its second, in UTC. Time
// queries return the closest older report, so the end of a range (or a point
// in time) is pushed to the end of its second.
func ceilSecond(t time.Time) time.Time {
	return floorSecond(t).Add(time.Second - time.Millisecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// baseQuery holds the parameters shared by every operation.
func baseQuery(lat, lon float64, lang Lang, fields []Field) url.Values {
	q := url.Values{}
	q.Set("lat", formatFloat(lat))
	q.Set("lon", formatFloat(lon))
	if lang != "" {
		q.Set("lang", string(lang))
	}
	if len(fields) > 0 {
		q.Set("fields", joinFields(fields))
	}
	return q
}

func currentQuery(r CurrentRequest) url.Values {
	return baseQuery(r.Lat, r.Lon, r.Lang, r.Fields)
}

func historicalQuery(r HistoricalRequest) url.Values {
	q := baseQuery(r.Lat, r.Lon, r.Lang, r.Fields)
	if !r.Datetime.IsZero() {
		q.Set("datetime", formatTime(ceilSecond(r.Datetime)))
	}
	if !r.Start.IsZero() {
		q.Set("start_datetime", formatTime(floorSecond(r.Start)))
	}
	if !r.End.IsZero() {
		q.Set("end_datetime", formatTime(ceilSecond(r.End)))
	}
	if r.Interval != 0 {
		q.Set("interval", strconv.Itoa(r.Interval))
	}
	return q
}

func forecastQuery(r ForecastRequest) url.Values {
	q := baseQuery(r.Lat, r.Lon, r.Lang, r.Fields)
	if r.Hours != 0 {
		q.Set("hours", strconv.Itoa(r.Hours))
	}
	if !r.Start.IsZero() {
		q.Set("start_datetime", formatTime(floorSecond(r.Start)))
	}
	if !r.End.IsZero() {
		q.Set("end_datetime", formatTime(ceilSecond(r.End)))
	}
	return q
}
