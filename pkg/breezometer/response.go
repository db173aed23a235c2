package breezometer

import (
	"bytes"
	"encoding/json"
	"time"
)

// Embedded error codes meaning the API has no data for the coordinate.
const (
	codeLocationUnsupported = 20
	codeNoDataForLocation   = 21
)

// Result is a decoded API response.
type Result struct {
	// Raw is the response body exactly as received.
	Raw json.RawMessage
	// Reports holds one entry for a point query and one per hour for
	// range and forecast queries.
	Reports []Report
}

// First returns the first report, or false when there is none.
func (r *Result) First() (Report, bool) {
	if r == nil || len(r.Reports) == 0 {
		return Report{}, false
	}
	return r.Reports[0], true
}

// Report is a single air quality report. Which fields are populated depends
// on the fields selected in the request.
type Report struct {
	Datetime string `json:"datetime,omitempty"`
	// Timestamp is Datetime parsed as UTC. It is zero when Datetime is empty
	// or not ISO-8601.
	Timestamp time.Time `json:"-"`

	DataValid              *bool  `json:"data_valid,omitempty"`
	BreezometerAQI         any    `json:"breezometer_aqi,omitempty"`
	BreezometerColor       string `json:"breezometer_color,omitempty"`
	BreezometerDescription string `json:"breezometer_description,omitempty"`

	CountryName        string `json:"country_name,omitempty"`
	CountryAQI         any    `json:"country_aqi,omitempty"`
	CountryAQIPrefix   string `json:"country_aqi_prefix,omitempty"`
	CountryColor       string `json:"country_color,omitempty"`
	CountryDescription string `json:"country_description,omitempty"`

	DominantPollutantCanonicalName string `json:"dominant_pollutant_canonical_name,omitempty"`
	DominantPollutantDescription   string `json:"dominant_pollutant_description,omitempty"`
	DominantPollutantText          any    `json:"dominant_pollutant_text,omitempty"`

	Pollutants            map[string]json.RawMessage `json:"pollutants,omitempty"`
	RandomRecommendations map[string]string          `json:"random_recommendations,omitempty"`
}

// apiError is the error object the API embeds in 200 responses.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeUnsupported
)

// interpret decodes a 200 body. It returns outcomeUnsupported for the
// location-not-supported codes and a *ProviderError for any other embedded
// error.
func interpret(op Operation, body []byte) (*Result, outcome, *apiError, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Result{Raw: json.RawMessage(body)}, outcomeSuccess, nil, nil
	}

	res := &Result{Raw: json.RawMessage(body)}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &res.Reports); err != nil {
			return nil, outcomeSuccess, nil, &DecodeError{Op: op, Err: err}
		}
	} else {
		var envelope struct {
			Error json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, outcomeSuccess, nil, &DecodeError{Op: op, Err: err}
		}
		if e := embeddedError(envelope.Error); e != nil {
			if e.Code == codeLocationUnsupported || e.Code == codeNoDataForLocation {
				return nil, outcomeUnsupported, e, nil
			}
			return nil, outcomeSuccess, e, &ProviderError{Op: op, Code: e.Code, Message: e.Message, Body: string(body)}
		}
		var rep Report
		if err := json.Unmarshal(trimmed, &rep); err != nil {
			return nil, outcomeSuccess, nil, &DecodeError{Op: op, Err: err}
		}
		res.Reports = []Report{rep}
	}

	for i := range res.Reports {
		res.Reports[i].Timestamp = parseDatetime(res.Reports[i].Datetime)
	}
	return res, outcomeSuccess, nil, nil
}

// embeddedError reads the error member of a response. Anything other than
// an object with a code is kept as the message, with code 0.
func embeddedError(raw json.RawMessage) *apiError {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil {
		return &e
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &apiError{Message: msg}
	}
	return &apiError{Message: string(raw)}
}

func parseDatetime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
