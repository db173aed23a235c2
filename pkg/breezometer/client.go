// Package breezometer is a client for the BreezoMeter air quality API.
//
// Each call validates its request before anything is sent, so a
// *ValidationError always means no HTTP request was made. Valid requests
// are normalized into a query string (coordinates as numbers, selected
// fields comma joined, times in UTC rounded to whole seconds) and sent with
// bounded exponential backoff: up to Config.MaxRetries retries, waiting
// Backoff(n) before retry n.
//
// # Results
//
// A successful call returns the decoded body as a *Result. When the API
// reports that it has no data for the coordinate, the call returns a nil
// *Result and a nil error.
//
// # Errors
//
// Failures are reported with typed errors, inspect them with errors.As:
//
//   - [ValidationError]: the request was rejected locally.
//   - [TransportError]: the last attempt failed to connect or timed out.
//   - [UnexpectedStatusError]: the last attempt got a status other than 200.
//   - [ProviderError]: the last attempt got an error embedded in a 200 body.
//   - [DecodeError]: the last attempt got a 200 body that was not JSON.
//
// A Client is safe for concurrent use; calls share nothing but the
// configuration captured by New.
package breezometer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	pathAirQuality = "baqi/"
	pathForecast   = "forecast/"
)

// Client calls the BreezoMeter API.
type Client struct {
	apiKey     string
	baseURL    *url.URL
	headers    http.Header
	maxRetries int
	httpClient *http.Client
	logger     Logger

	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	breaker    *gobreaker.CircuitBreaker
	onComplete func(op Operation, res *Result, err error)
}

// New builds a Client from cfg, filling in defaults for unset settings.
func New(cfg Config, opts ...Option) (*Client, error) {
	rawURL := cfg.BaseURL
	if rawURL == "" {
		rawURL = DefaultBaseURL
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("breezometer: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("breezometer: base url %q must be absolute", rawURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("breezometer: timeout must not be negative")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	retries := cfg.MaxRetries
	switch {
	case retries == 0:
		retries = DefaultMaxRetries
	case retries == NoRetries:
		retries = 0
	case retries < 0:
		return nil, fmt.Errorf("breezometer: max retries must not be negative")
	}

	headers := cfg.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if headers.Get("User-Agent") == "" {
		headers.Set("User-Agent", "go-breezometer/"+Version)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		headers:    headers,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CurrentConditions returns the latest air quality at a coordinate.
func (c *Client) CurrentConditions(ctx context.Context, r CurrentRequest) (*Result, error) {
	if err := validateCurrent(r); err != nil {
		return c.finish(OpCurrent, nil, err)
	}
	res, err := c.send(ctx, OpCurrent, pathAirQuality, currentQuery(r))
	return c.finish(OpCurrent, res, err)
}

// Historical returns past air quality for a point in time or a range.
func (c *Client) Historical(ctx context.Context, r HistoricalRequest) (*Result, error) {
	if err := validateHistorical(r, c.now()); err != nil {
		return c.finish(OpHistorical, nil, err)
	}
	res, err := c.send(ctx, OpHistorical, pathAirQuality, historicalQuery(r))
	return c.finish(OpHistorical, res, err)
}

// Forecast returns hourly air quality predictions.
func (c *Client) Forecast(ctx context.Context, r ForecastRequest) (*Result, error) {
	if err := validateForecast(r, c.now()); err != nil {
		return c.finish(OpForecast, nil, err)
	}
	res, err := c.send(ctx, OpForecast, pathForecast, forecastQuery(r))
	return c.finish(OpForecast, res, err)
}

// Call decodes a loosely typed parameter bag for op and performs it.
func (c *Client) Call(ctx context.Context, op Operation, p Params) (*Result, error) {
	switch op {
	case OpCurrent:
		r, err := DecodeCurrent(p)
		if err != nil {
			return c.finish(op, nil, err)
		}
		return c.CurrentConditions(ctx, r)
	case OpHistorical:
		r, err := DecodeHistorical(p)
		if err != nil {
			return c.finish(op, nil, err)
		}
		return c.Historical(ctx, r)
	case OpForecast:
		r, err := DecodeForecast(p)
		if err != nil {
			return c.finish(op, nil, err)
		}
		return c.Forecast(ctx, r)
	default:
		return c.finish(op, nil, fmt.Errorf("breezometer: unknown operation %q", op))
	}
}

func (c *Client) finish(op Operation, res *Result, err error) (*Result, error) {
	if c.onComplete != nil {
		c.onComplete(op, res, err)
	}
	return res, err
}
