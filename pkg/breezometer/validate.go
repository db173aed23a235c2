package breezometer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// nowBuffer tolerates clock skew between us and the API when checking
// whether a timestamp lies in the past or the future.
const nowBuffer = time.Second

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	err := v.RegisterValidation("field", func(fl validator.FieldLevel) bool {
		return Field(fl.Field().String()).Valid()
	})
	if err != nil {
		panic(fmt.Sprintf("breezometer: registering field validation: %v", err))
	}
	return v
}

func validateCurrent(r CurrentRequest) error {
	return structError(OpCurrent, validate.Struct(r))
}

func validateHistorical(r HistoricalRequest, now time.Time) error {
	if err := structError(OpHistorical, validate.Struct(r)); err != nil {
		return err
	}

	hasPoint := !r.Datetime.IsZero()
	hasStart, hasEnd := !r.Start.IsZero(), !r.End.IsZero()
	invalid := func(field, reason string) error {
		return &ValidationError{Op: OpHistorical, Field: field, Reason: reason}
	}

	switch {
	case hasStart != hasEnd:
		return invalid(missingRangeEnd(hasStart), "start_datetime and end_datetime must be supplied together")
	case hasPoint && hasStart:
		return invalid("datetime", "cannot be combined with start_datetime and end_datetime")
	case !hasPoint && !hasStart:
		return invalid("", "one of datetime or start_datetime and end_datetime is required")
	case r.Interval != 0 && !hasStart:
		return invalid("interval", "requires start_datetime and end_datetime")
	}

	limit := now.Add(-nowBuffer)
	if hasPoint && r.Datetime.After(limit) {
		return invalid("datetime", "must not be in the future")
	}
	if hasEnd && r.End.After(limit) {
		return invalid("end_datetime", "must not be in the future")
	}
	if hasStart && r.Start.After(r.End) {
		return invalid("start_datetime", "must not be after end_datetime")
	}
	return nil
}

func validateForecast(r ForecastRequest, now time.Time) error {
	if err := structError(OpForecast, validate.Struct(r)); err != nil {
		return err
	}

	hasHours := r.Hours != 0
	hasStart, hasEnd := !r.Start.IsZero(), !r.End.IsZero()
	invalid := func(field, reason string) error {
		return &ValidationError{Op: OpForecast, Field: field, Reason: reason}
	}

	switch {
	case hasStart != hasEnd:
		return invalid(missingRangeEnd(hasStart), "start_datetime and end_datetime must be supplied together")
	case hasHours && hasStart:
		return invalid("hours", "cannot be combined with start_datetime and end_datetime")
	case !hasHours && !hasStart:
		return invalid("", "one of hours or start_datetime and end_datetime is required")
	}

	if hasStart && r.Start.Before(now.Add(-nowBuffer)) {
		return invalid("start_datetime", "must not be in the past")
	}
	if hasEnd && r.End.Before(r.Start) {
		return invalid("end_datetime", "must not be before start_datetime")
	}
	return nil
}

func missingRangeEnd(hasStart bool) string {
	if hasStart {
		return "end_datetime"
	}
	return "start_datetime"
}

// structError converts the first validator failure into a *ValidationError.
func structError(op Operation, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Op: op, Reason: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Op: op, Field: fieldPath(fe), Reason: describe(fe)}
}

// fieldPath strips the struct name from the namespace, e.g.
// "CurrentRequest.fields[2]" becomes "fields[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte", "min":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "unique":
		return "must not contain duplicates"
	case "field":
		return fmt.Sprintf("unknown field %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
