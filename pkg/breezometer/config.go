package breezometer

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

const (
	DefaultBaseURL    = "https://api.breezometer.com/"
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 10 // retries, not attempts

	// NoRetries disables retrying when used as Config.MaxRetries.
	NoRetries = -1
)

// Config holds the settings captured when a Client is built. A Client never
// modifies it afterwards.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds a single attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxRetries is the number of retries after the initial attempt, so a
	// call makes at most MaxRetries+1 attempts: 11 with DefaultMaxRetries.
	// Use 9 for a budget of 10 attempts in total. Zero selects
	// DefaultMaxRetries; NoRetries disables retrying.
	MaxRetries int

	// Headers are sent with every request. A User-Agent identifying this
	// client is added unless one is set here.
	Headers http.Header

	// Logger defaults to NopLogger.
	Logger Logger
}

// Option customizes collaborators of a Client that are not plain settings.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Config.Timeout is ignored; the
// given client's own Timeout applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock sets the clock used to decide whether requested times lie in
// the past or the future.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleeper replaces the wait between attempts. The sleeper must return
// ctx.Err() if ctx is done before d elapses.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithCircuitBreaker guards every attempt with a circuit breaker. While the
// breaker is open calls fail with ErrCircuitOpen and are not retried.
func WithCircuitBreaker(st gobreaker.Settings) Option {
	return func(c *Client) {
		if st.Name == "" {
			st.Name = "breezometer"
		}
		c.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// WithCompletion registers fn to be called once when each call finishes,
// after the result has been decided.
func WithCompletion(fn func(op Operation, res *Result, err error)) Option {
	return func(c *Client) {
		c.onComplete = fn
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
