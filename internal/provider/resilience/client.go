package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling the provider while its breaker
// is open or its half-open trial calls are in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const defaultRequestTimeout = 10 * time.Second

// ServerError is a 5xx answer from a provider.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Name is the provider name used for the breaker and health reporting.
	Name string

	// Timeout bounds a single attempt. Zero means ten seconds.
	Timeout time.Duration

	Retry RetryPolicy

	// CircuitBreaker overrides DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultClientConfig suits price-reference lookups: short attempts, three
// retries and the default breaker.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:    name,
		Timeout: defaultRequestTimeout,
		Retry: RetryPolicy{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		CircuitBreaker: &breaker,
	}
}

// Client sends idempotent requests to one provider. Transport failures and
// 5xx answers are retried and counted by the provider's breaker.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	retry   RetryPolicy
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	breaker := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		breaker = *cfg.CircuitBreaker
	}

	return &Client{
		name:    cfg.Name,
		http:    &http.Client{Timeout: timeout},
		breaker: NewCircuitBreaker[*http.Response](breaker), //nolint:bodyclose // type parameter
		retry:   cfg.Retry,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// State returns the breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Counts returns the breaker counts.
func (c *Client) Counts() gobreaker.Counts { return c.breaker.Counts() }

// Do sends req. When every attempt ends in a 5xx the last such response is
// returned with a nil error, so callers can read the provider's error body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var failed *http.Response
	release := func() {
		if failed != nil {
			_, _ = io.Copy(io.Discard, failed.Body)
			_ = failed.Body.Close()
			failed = nil
		}
	}

	resp, err := Execute(req.Context(), c.retry, c.breaker, func(ctx context.Context) (*http.Response, error) { //nolint:bodyclose // returned to caller
		r, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if r.StatusCode < http.StatusInternalServerError {
			return r, nil
		}
		release()
		failed = r
		return nil, &ServerError{StatusCode: r.StatusCode}
	})

	var serverErr *ServerError
	switch {
	case err == nil:
		release()
		return resp, nil
	case errors.As(err, &serverErr) && failed != nil:
		return failed, nil
	default:
		release()
		return nil, err
	}
}
