package breezometer

import "time"

// Operation names one of the three API calls.
type Operation string

const (
	OpCurrent    Operation = "current"
	OpHistorical Operation = "historical"
	OpForecast   Operation = "forecast"
)

// Lang is a response language supported by the API.
type Lang string

const (
	LangEnglish Lang = "en"
	LangHebrew  Lang = "he"
)

// Field names a result field that can be selected with the fields parameter.
type Field string

const (
	FieldBreezometerAQI                 Field = "breezometer_aqi"
	FieldBreezometerDescription         Field = "breezometer_description"
	FieldCountryAQIPrefix               Field = "country_aqi_prefix"
	FieldCountryColor                   Field = "country_color"
	FieldBreezometerColor               Field = "breezometer_color"
	FieldCountryName                    Field = "country_name"
	FieldCountryAQI                     Field = "country_aqi"
	FieldCountryDescription             Field = "country_description"
	FieldDominantPollutantCanonicalName Field = "dominant_pollutant_canonical_name"
	FieldDominantPollutantDescription   Field = "dominant_pollutant_description"
	FieldDominantPollutantText          Field = "dominant_pollutant_text"
	FieldDatetime                       Field = "datetime"
	FieldPollutants                     Field = "pollutants"
	FieldDataValid                      Field = "data_valid"
	FieldRandomRecommendations          Field = "random_recommendations"
)

// MaxFields is the largest number of fields a single request may select.
const MaxFields = 15

// CurrentRequest asks for the latest conditions at a coordinate.
type CurrentRequest struct {
	Lat    float64 `query:"lat" validate:"gte=-90,lte=90"`
	Lon    float64 `query:"lon" validate:"gte=-180,lte=180"`
	Lang   Lang    `query:"lang" validate:"omitempty,oneof=en he"`
	Fields []Field `query:"fields" validate:"omitempty,max=15,unique,dive,field"`
}

// HistoricalRequest asks for past conditions, either at a single point in
// time (Datetime) or over a range (Start and End, optionally sampled every
// Interval hours).
type HistoricalRequest struct {
	Lat      float64   `query:"lat" validate:"gte=-90,lte=90"`
	Lon      float64   `query:"lon" validate:"gte=-180,lte=180"`
	Lang     Lang      `query:"lang" validate:"omitempty,oneof=en he"`
	Fields   []Field   `query:"fields" validate:"omitempty,max=15,unique,dive,field"`
	Datetime time.Time `query:"datetime"`
	Start    time.Time `query:"start_datetime"`
	End      time.Time `query:"end_datetime"`
	Interval int       `query:"interval" validate:"omitempty,min=1,max=24"`
}

// ForecastRequest asks for hourly predictions, either the next Hours hours
// or a future range.
type ForecastRequest struct {
	Lat    float64   `query:"lat" validate:"gte=-90,lte=90"`
	Lon    float64   `query:"lon" validate:"gte=-180,lte=180"`
	Lang   Lang      `query:"lang" validate:"omitempty,oneof=en he"`
	Fields []Field   `query:"fields" validate:"omitempty,max=15,unique,dive,field"`
	Hours  int       `query:"hours" validate:"omitempty,min=1,max=24"`
	Start  time.Time `query:"start_datetime"`
	End    time.Time `query:"end_datetime"`
}

var allowedFields = map[Field]struct{}{
	FieldBreezometerAQI:                 {},
	FieldBreezometerDescription:         {},
	FieldCountryAQIPrefix:               {},
	FieldCountryColor:                   {},
	FieldBreezometerColor:               {},
	FieldCountryName:                    {},
	FieldCountryAQI:                     {},
	FieldCountryDescription:             {},
	FieldDominantPollutantCanonicalName: {},
	FieldDominantPollutantDescription:   {},
	FieldDominantPollutantText:          {},
	FieldDatetime:                       {},
	FieldPollutants:                     {},
	FieldDataValid:                      {},
	FieldRandomRecommendations:          {},
}

// Valid reports whether f is in the API's field allow-list.
func (f Field) Valid() bool {
	_, ok := allowedFields[f]
	return ok
}
