package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// RetryPolicy bounds how often a transient failure is retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero means a single attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff delay.
	// Default: 250ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay.
	// Default: 5 seconds
	MaxInterval time.Duration

	// Retryable reports whether an error is worth another attempt.
	// If nil, every error except context cancellation is retried.
	Retryable func(error) bool
}

// NoRetry is a policy that makes exactly one attempt.
var NoRetry = RetryPolicy{}

// DefaultRetryPolicy retries twice with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	initial := p.InitialInterval
	if initial == 0 {
		initial = 250 * time.Millisecond
	}
	maxInterval := p.MaxInterval
	if maxInterval == 0 {
		maxInterval = 5 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // bounded by MaxRetries

	return backoff.WithContext(backoff.WithMaxRetries(bo, p.MaxRetries), ctx)
}

func (p RetryPolicy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Execute runs op under the policy, optionally through a circuit breaker.
// The error of the last attempt is returned unwrapped. An open breaker
// yields ErrCircuitOpen without calling op.
func Execute[T any](ctx context.Context, policy RetryPolicy, cb *gobreaker.CircuitBreaker[T], op func(context.Context) (T, error)) (T, error) {
	var result T

	attempt := func() error {
		var (
			v   T
			err error
		)
		if cb != nil {
			v, err = cb.Execute(func() (T, error) { return op(ctx) })
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
		} else {
			v, err = op(ctx)
		}
		if err != nil {
			if !policy.retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}

	if err := backoff.Retry(attempt, policy.backoff(ctx)); err != nil {
		var zero T
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return zero, perm.Err
		}
		return zero, err
	}
	return result, nil
}
