package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-client/internal/airquality"
	"github.com/i474232898/air-quality-client/internal/store"
	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *airquality.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/air/current", operationHandler(service, breezometer.OpCurrent))
	v1.Get("/air/historical", operationHandler(service, breezometer.OpHistorical))
	v1.Get("/air/forecast", operationHandler(service, breezometer.OpForecast))

	v1.Get("/readings/latest", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}

		snapshot, err := service.GetLatest(name)
		if err != nil {
			return readingsError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/readings", func(c *fiber.Ctx) error {
		var req readingsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.GetRange(req.Name, req.From, req.To)
		if err != nil {
			return readingsError(err)
		}

		return c.JSON(fiber.Map{
			"name":      req.Name,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(service.Locations())
	})
}

// reportView adds the parsed report time to the API's own fields.
type reportView struct {
	breezometer.Report
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func operationHandler(service *airquality.Service, op breezometer.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed query string")
		}

		res, err := service.Call(c.UserContext(), op, breezometer.ParamsFromValues(values))
		if err != nil {
			return operationError(err)
		}
		if res == nil {
			// Location not supported by the provider.
			return c.SendStatus(fiber.StatusNoContent)
		}

		reports := make([]reportView, 0, len(res.Reports))
		for _, r := range res.Reports {
			v := reportView{Report: r}
			if !r.Timestamp.IsZero() {
				ts := r.Timestamp
				v.Timestamp = &ts
			}
			reports = append(reports, v)
		}

		return c.JSON(fiber.Map{
			"operation": op,
			"reports":   reports,
		})
	}
}

func operationError(err error) error {
	var ve *breezometer.ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case errors.Is(err, breezometer.ErrCircuitOpen):
		return fiber.NewError(fiber.StatusServiceUnavailable, "air quality provider temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "air quality provider timed out")
	default:
		return fiber.NewError(fiber.StatusBadGateway, "air quality provider request failed")
	}
}

func readingsError(err error) error {
	switch {
	case errors.Is(err, airquality.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no air quality readings for requested location")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch air quality readings")
	}
}

// readingsQuery holds query parameters for the readings history endpoint.
type readingsQuery struct {
	Name string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *readingsQuery) bind(c *fiber.Ctx) error {
	h.Name = c.Query("name")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
