package breezometer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 60 * time.Second
)

// Backoff returns the wait before retry n (0 for the first retry):
// 50ms doubled per retry, capped at one minute.
func Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// 50ms << 11 already exceeds the cap.
	if n > 10 {
		return maxBackoff
	}
	delay := initialBackoff << uint(n)
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

type attemptResult struct {
	res     *Result
	outcome outcome
}

// send issues GET path?q with retries. A nil *Result with a nil error means
// the API does not support the location.
func (c *Client) send(ctx context.Context, op Operation, path string, q url.Values) (*Result, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})
	logQuery := q.Encode()

	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()
	target := endpoint.String()

	callID := uuid.NewString()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ar, err := c.guardedAttempt(ctx, op, target, callID, logQuery, attempt)
		if err == nil {
			if ar.outcome == outcomeUnsupported {
				return nil, nil
			}
			return ar.res, nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if attempt >= c.maxRetries {
			c.logger.Error("giving up on breezometer "+string(op),
				"call_id", callID, "attempts", attempt+1, "err", lastErr)
			return nil, lastErr
		}

		delay := Backoff(attempt)
		c.logger.Debug("retrying breezometer "+string(op),
			"call_id", callID, "attempt", attempt+1, "delay", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// guardedAttempt runs one attempt, through the circuit breaker when one is
// configured.
func (c *Client) guardedAttempt(ctx context.Context, op Operation, target, callID, logQuery string, attempt int) (attemptResult, error) {
	if c.breaker == nil {
		return c.attempt(ctx, op, target, callID, logQuery, attempt)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		ar, err := c.attempt(ctx, op, target, callID, logQuery, attempt)
		if err != nil {
			return nil, err
		}
		return ar, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("breezometer circuit breaker rejected call", "op", op, "call_id", callID)
			return attemptResult{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return attemptResult{}, err
	}
	ar, ok := out.(attemptResult)
	if !ok {
		return attemptResult{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return ar, nil
}

func (c *Client) attempt(ctx context.Context, op Operation, target, callID, logQuery string, attempt int) (attemptResult, error) {
	c.logger.Trace("calling breezometer "+string(op), "call_id", callID, "attempt", attempt+1, "qs", logQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return attemptResult{}, &TransportError{Op: op, Err: err}
	}
	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("error calling breezometer "+string(op),
			"call_id", callID, "attempt", attempt+1, "qs", logQuery, "err", err)
		return attemptResult{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("error reading breezometer "+string(op)+" response",
			"call_id", callID, "attempt", attempt+1, "qs", logQuery, "err", err)
		return attemptResult{}, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("did not receive a 200 status code from breezometer "+string(op),
			"call_id", callID, "attempt", attempt+1, "status", resp.StatusCode, "body", string(body), "qs", logQuery)
		return attemptResult{}, &UnexpectedStatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	res, out, apiErr, err := interpret(op, body)
	switch {
	case err != nil:
		c.logger.Error("application level error returned from breezometer "+string(op),
			"call_id", callID, "attempt", attempt+1, "body", string(body), "qs", logQuery)
		return attemptResult{}, err
	case out == outcomeUnsupported:
		c.logger.Info("location not supported by breezometer",
			"call_id", callID, "code", apiErr.Code, "message", apiErr.Message, "qs", logQuery)
	}
	return attemptResult{res: res, outcome: out}, nil
}
