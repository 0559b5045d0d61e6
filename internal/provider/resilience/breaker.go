// Package resilience wraps provider calls in retries and circuit breakers and
// keeps a per-provider health record for the ops endpoints.
package resilience

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultHalfOpenProbes = 1
	defaultOpenTimeout    = time.Minute
	defaultMinRequests    = 5
	defaultFailureRatio   = 0.5
)

// CircuitBreakerConfig configures a gobreaker breaker. Zero durations and
// counts fall back to gobreaker's own defaults.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32

	// Interval resets the counts while closed. Zero keeps them until a
	// state change.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsSuccessful decides which errors count against the breaker. A
	// cancelled plan request says nothing about the model's health.
	IsSuccessful func(err error) bool

	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultCircuitBreakerConfig opens after half of at least five calls fail
// and tries again a minute later.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: defaultHalfOpenProbes,
		Timeout:     defaultOpenTimeout,
		ReadyToTrip: TripOnFailureRatio(defaultMinRequests, defaultFailureRatio),
	}
}

// TripOnFailureRatio opens the breaker once minRequests calls have been seen
// and at least ratio of them failed.
func TripOnFailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests == 0 || c.Requests < minRequests {
			return false
		}
		return float64(c.TotalFailures) >= ratio*float64(c.Requests)
	}
}

// LogStateChanges logs breaker transitions, at warn level when a breaker
// leaves the closed state.
func LogStateChanges(logger zerolog.Logger) func(string, gobreaker.State, gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		event := logger.Warn()
		if to == gobreaker.StateClosed {
			event = logger.Info()
		}
		event.
			Str("provider", name).
			Stringer("from", from).
			Stringer("to", to).
			Msg("circuit breaker state changed")
	}
}

// NewCircuitBreaker builds a breaker for calls returning T.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = TripOnFailureRatio(defaultMinRequests, defaultFailureRatio)
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   readyToTrip,
		IsSuccessful:  cfg.IsSuccessful,
		OnStateChange: cfg.OnStateChange,
	})
}
