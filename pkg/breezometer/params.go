package breezometer

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Params is a loosely typed request, as it arrives from a query string,
// JSON document or config file. Numbers may be given as strings, times as
// RFC 3339 strings or unix seconds, and fields as a comma separated string.
//
// The keys dateTime, startDate and endDate are accepted as aliases of
// datetime, start_datetime and end_datetime.
type Params map[string]any

var paramAliases = map[string]string{
	"dateTime":  "datetime",
	"startDate": "start_datetime",
	"endDate":   "end_datetime",
}

// maxUnixSeconds bounds numeric timestamps to the range a JavaScript Date
// can represent (±8.64e15 ms).
const maxUnixSeconds = 8.64e12

// ParamsFromValues builds Params from a parsed query string. Repeated keys
// become a []string.
func ParamsFromValues(v url.Values) Params {
	p := make(Params, len(v))
	for k, vs := range v {
		switch len(vs) {
		case 0:
		case 1:
			p[k] = vs[0]
		default:
			p[k] = append([]string(nil), vs...)
		}
	}
	return p
}

type locationParams struct {
	Lat    *float64 `mapstructure:"lat"`
	Lon    *float64 `mapstructure:"lon"`
	Lang   string   `mapstructure:"lang"`
	Fields []string `mapstructure:"fields"`
}

type currentParams struct {
	locationParams `mapstructure:",squash"`
}

type historicalParams struct {
	locationParams `mapstructure:",squash"`
	Datetime       time.Time `mapstructure:"datetime"`
	Start          time.Time `mapstructure:"start_datetime"`
	End            time.Time `mapstructure:"end_datetime"`
	Interval       *float64  `mapstructure:"interval"`
}

type forecastParams struct {
	locationParams `mapstructure:",squash"`
	Hours          *float64  `mapstructure:"hours"`
	Start          time.Time `mapstructure:"start_datetime"`
	End            time.Time `mapstructure:"end_datetime"`
}

// expected describes each key's type in error messages.
var expected = map[string]string{
	"lat":            "a number",
	"lon":            "a number",
	"lang":           "a string",
	"fields":         "a string or a list of strings",
	"datetime":       "a valid date",
	"start_datetime": "a valid date",
	"end_datetime":   "a valid date",
	"interval":       "a whole number of hours",
	"hours":          "an integer",
}

// DecodeCurrent converts p into a CurrentRequest. Range checks happen when
// the request is sent.
func DecodeCurrent(p Params) (CurrentRequest, error) {
	var in currentParams
	set, err := decodeParams(OpCurrent, p, &in)
	if err != nil {
		return CurrentRequest{}, err
	}
	lat, lon, fields, err := in.resolve(OpCurrent, set["fields"])
	if err != nil {
		return CurrentRequest{}, err
	}
	return CurrentRequest{Lat: lat, Lon: lon, Lang: Lang(in.Lang), Fields: fields}, nil
}

// DecodeHistorical converts p into a HistoricalRequest.
func DecodeHistorical(p Params) (HistoricalRequest, error) {
	var in historicalParams
	set, err := decodeParams(OpHistorical, p, &in)
	if err != nil {
		return HistoricalRequest{}, err
	}
	lat, lon, fields, err := in.resolve(OpHistorical, set["fields"])
	if err != nil {
		return HistoricalRequest{}, err
	}
	interval, err := hourCount(OpHistorical, "interval", in.Interval)
	if err != nil {
		return HistoricalRequest{}, err
	}
	return HistoricalRequest{
		Lat:      lat,
		Lon:      lon,
		Lang:     Lang(in.Lang),
		Fields:   fields,
		Datetime: in.Datetime,
		Start:    in.Start,
		End:      in.End,
		Interval: interval,
	}, nil
}

// DecodeForecast converts p into a ForecastRequest.
func DecodeForecast(p Params) (ForecastRequest, error) {
	var in forecastParams
	set, err := decodeParams(OpForecast, p, &in)
	if err != nil {
		return ForecastRequest{}, err
	}
	lat, lon, fields, err := in.resolve(OpForecast, set["fields"])
	if err != nil {
		return ForecastRequest{}, err
	}
	hours, err := hourCount(OpForecast, "hours", in.Hours)
	if err != nil {
		return ForecastRequest{}, err
	}
	return ForecastRequest{
		Lat:    lat,
		Lon:    lon,
		Lang:   Lang(in.Lang),
		Fields: fields,
		Hours:  hours,
		Start:  in.Start,
		End:    in.End,
	}, nil
}

// decodeParams canonicalizes the keys of p and decodes them one at a time
// into out, so every failure names the key that caused it. It returns the
// canonical names that were set.
func decodeParams(op Operation, p Params, out any) (map[string]bool, error) {
	if p == nil {
		return nil, &ValidationError{Op: op, Reason: "parameters are required"}
	}

	vals := make(map[string]any, len(p))
	for k, v := range p {
		name := k
		if alias, ok := paramAliases[k]; ok {
			name = alias
		}
		if name == "key" {
			return nil, &ValidationError{Op: op, Field: "key", Reason: "must not be supplied, the api key comes from configuration"}
		}
		if _, dup := vals[name]; dup {
			return nil, &ValidationError{Op: op, Field: name, Reason: "supplied more than once"}
		}
		vals[name] = v
	}

	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(map[string]bool, len(names))
	for _, name := range names {
		v := vals[name]
		if isNil(v) {
			if name == "lang" {
				continue
			}
			return nil, &ValidationError{Op: op, Field: name, Reason: "must not be null"}
		}

		var md mapstructure.Metadata
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				numberHook,
				stringHook,
				timeHook,
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Metadata:         &md,
			Result:           out,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(map[string]any{name: v}); err != nil {
			return nil, &ValidationError{Op: op, Field: name, Reason: fmt.Sprintf("must be %s, got %v", expected[name], v)}
		}
		if len(md.Unused) > 0 {
			return nil, &ValidationError{Op: op, Field: name, Reason: "is not allowed"}
		}
		set[name] = true
	}
	return set, nil
}

// resolve checks the location part of a decoded bag.
func (l locationParams) resolve(op Operation, hasFields bool) (lat, lon float64, fields []Field, err error) {
	if lat, err = coordinate(op, "lat", l.Lat); err != nil {
		return 0, 0, nil, err
	}
	if lon, err = coordinate(op, "lon", l.Lon); err != nil {
		return 0, 0, nil, err
	}
	if !hasFields {
		return lat, lon, nil, nil
	}

	for _, entry := range l.Fields {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.TrimSpace(name); name != "" {
				fields = append(fields, Field(name))
			}
		}
	}
	if len(fields) == 0 {
		return 0, 0, nil, &ValidationError{Op: op, Field: "fields", Reason: "must contain at least 1 entry"}
	}
	return lat, lon, fields, nil
}

func coordinate(op Operation, field string, v *float64) (float64, error) {
	switch {
	case v == nil:
		return 0, &ValidationError{Op: op, Field: field, Reason: "is required"}
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return 0, &ValidationError{Op: op, Field: field, Reason: fmt.Sprintf("must be a finite number, got %v", *v)}
	}
	return *v, nil
}

// hourCount reads an hour count. Zero means unset in the typed requests, so
// an explicit zero is rejected here.
func hourCount(op Operation, field string, v *float64) (int, error) {
	if v == nil {
		return 0, nil
	}
	f := *v
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Op: op, Field: field, Reason: fmt.Sprintf("must be %s, got %v", expected[field], f)}
	}
	if f < 1 || f > 24 {
		return 0, &ValidationError{Op: op, Field: field, Reason: fmt.Sprintf("must be between 1 and 24, got %v", f)}
	}
	return int(f), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// numberHook trims numeric strings and refuses blank strings and booleans,
// which weak decoding would otherwise turn into 0 and 1.
func numberHook(f, t reflect.Type, data any) (any, error) {
	if !isNumeric(indirect(t).Kind()) {
		return data, nil
	}
	switch f.Kind() {
	case reflect.Bool:
		return nil, errors.New("booleans are not numbers")
	case reflect.String:
		s := strings.TrimSpace(reflect.ValueOf(data).String())
		if s == "" {
			return nil, errors.New("empty string")
		}
		return s, nil
	}
	return data, nil
}

// stringHook refuses non-string values where a string is expected.
func stringHook(f, t reflect.Type, data any) (any, error) {
	if indirect(t).Kind() != reflect.String || f.Kind() == reflect.String {
		return data, nil
	}
	return nil, fmt.Errorf("expected a string, got %T", data)
}

var timeType = reflect.TypeOf(time.Time{})

// timeHook accepts time values, RFC 3339 strings and unix seconds given as
// a number or a numeric string.
func timeHook(f, t reflect.Type, data any) (any, error) {
	if indirect(t) != timeType {
		return data, nil
	}

	switch v := data.(type) {
	case time.Time:
		if v.IsZero() {
			return nil, errors.New("zero time")
		}
		return v, nil
	case *time.Time:
		if v.IsZero() {
			return nil, errors.New("zero time")
		}
		return *v, nil
	}
	if f.Kind() == reflect.String {
		return parseTimestamp(reflect.ValueOf(data).String())
	}
	if !isNumeric(f.Kind()) {
		return nil, fmt.Errorf("unsupported type %T", data)
	}
	sec, err := strconv.ParseFloat(fmt.Sprint(data), 64)
	if err != nil {
		return nil, err
	}
	return unixTime(sec)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return unixTime(sec)
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

func unixTime(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || math.Abs(sec) > maxUnixSeconds {
		return time.Time{}, fmt.Errorf("unix time %v out of range", sec)
	}
	whole, frac := math.Modf(sec)
	ts := time.Unix(int64(whole), int64(frac*1e9)).UTC()
	if ts.IsZero() {
		return time.Time{}, errors.New("zero time")
	}
	return ts, nil
}
