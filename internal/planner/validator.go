package planner

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// ValidationState is the state of the destination field.
type ValidationState string

const (
	StateIdle    ValidationState = "idle"
	StateLoading ValidationState = "loading"
	StateValid   ValidationState = "valid"
	StateInvalid ValidationState = "invalid"
)

// Default debounce settings.
const (
	DefaultQuietPeriod = 500 * time.Millisecond
	DefaultMinLength   = 3
)

// ValidationStatus is a snapshot of the validator.
type ValidationStatus struct {
	State ValidationState `json:"state"`
	Input string          `json:"input"`

	// CorrectedName is set on a valid result whose name differs from the
	// input other than by case.
	CorrectedName string `json:"correctedName,omitempty"`
}

// DestinationChecker checks one destination. *Service implements it.
type DestinationChecker interface {
	Validate(ctx context.Context, destination string) trip.DestinationResult
}

// ValidatorConfig holds configuration for a DestinationValidator.
type ValidatorConfig struct {
	Checker DestinationChecker
	Logger  zerolog.Logger

	// QuietPeriod is how long input must be stable before a check starts.
	// Default: 500ms
	QuietPeriod time.Duration

	// MinLength is the shortest trimmed input that is checked.
	// Default: 3
	MinLength int

	// Timeout bounds one check. Zero means no bound.
	Timeout time.Duration

	// OnChange receives every state transition in order. It runs outside the
	// validator's lock and may call Status or Input; transitions raised
	// meanwhile are queued behind the current call.
	OnChange func(ValidationStatus)
}

// DestinationValidator debounces destination checks as the traveller types.
// Every Input call advances a generation counter; a check whose generation
// is no longer current when it returns is discarded. In-flight checks are
// never aborted.
type DestinationValidator struct {
	checker   DestinationChecker
	logger    zerolog.Logger
	quiet     time.Duration
	minLength int
	timeout   time.Duration
	onChange  func(ValidationStatus)

	mu         sync.Mutex
	pending    []ValidationStatus
	delivering bool
	timer      *time.Timer
	generation uint64
	status     ValidationStatus
	stopped    bool
}

// NewDestinationValidator creates a validator in the idle state.
func NewDestinationValidator(cfg ValidatorConfig) *DestinationValidator {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	return &DestinationValidator{
		checker:   cfg.Checker,
		logger:    cfg.Logger,
		quiet:     cfg.QuietPeriod,
		minLength: cfg.MinLength,
		timeout:   cfg.Timeout,
		onChange:  cfg.OnChange,
		status:    ValidationStatus{State: StateIdle},
	}
}

// Input records a change of the destination text.
func (v *DestinationValidator) Input(text string) {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}

	v.generation++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < v.minLength {
		v.setLocked(ValidationStatus{State: StateIdle, Input: text})
		return
	}

	gen := v.generation
	v.timer = time.AfterFunc(v.quiet, func() { v.check(gen, trimmed) })
	v.setLocked(ValidationStatus{State: StateLoading, Input: text})
}

// Status returns the current state.
func (v *DestinationValidator) Status() ValidationStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Stop cancels any pending check and ignores results still in flight.
func (v *DestinationValidator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopped = true
	v.generation++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *DestinationValidator) check(gen uint64, input string) {
	ctx := context.Background()
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	res := v.checker.Validate(ctx, input)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug().
			Str("destination", input).
			Uint64("generation", gen).
			Msg("discarding stale destination check")
		return
	}

	v.timer = nil
	status := ValidationStatus{State: StateInvalid, Input: v.status.Input}
	if res.IsValid {
		status.State = StateValid
		if res.CorrectedName != "" && !strings.EqualFold(res.CorrectedName, input) {
			status.CorrectedName = res.CorrectedName
		}
	}
	v.setLocked(status)
}

// setLocked stores the status and releases mu. Transitions are queued
// under mu and delivered by whichever caller finds no delivery running, so
// the listener sees them in the order they were applied.
func (v *DestinationValidator) setLocked(status ValidationStatus) {
	v.status = status
	if v.onChange == nil {
		v.mu.Unlock()
		return
	}
	v.pending = append(v.pending, status)
	if v.delivering {
		v.mu.Unlock()
		return
	}
	v.delivering = true
	for len(v.pending) > 0 {
		next := v.pending[0]
		v.pending = v.pending[1:]
		v.mu.Unlock()
		v.onChange(next)
		v.mu.Lock()
	}
	v.delivering = false
	v.mu.Unlock()
}
