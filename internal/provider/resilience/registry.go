package resilience

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker is the read side of a circuit breaker. *Client and
// *gobreaker.CircuitBreaker[T] both satisfy it.
type Breaker interface {
	State() gobreaker.State
	Counts() gobreaker.Counts
}

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports whether the provider's breaker is closed.
func (h *ProviderHealth) IsHealthy() bool { return h.CircuitState == gobreaker.StateClosed }

// IsDegraded reports whether the provider's breaker is probing.
func (h *ProviderHealth) IsDegraded() bool { return h.CircuitState == gobreaker.StateHalfOpen }

type outcome struct {
	breaker   Breaker
	succeeded time.Time
	failed    time.Time
	lastError string
}

// Registry records call outcomes per provider. Providers registered without
// a breaker always report closed.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*outcome
	now       func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*outcome), now: time.Now}
}

// Register starts tracking name, forgetting any earlier outcomes.
func (r *Registry) Register(name string, b Breaker) {
	r.mu.Lock()
	r.providers[name] = &outcome{breaker: b}
	r.mu.Unlock()
}

// Record notes the result of one call to name. Unknown providers are ignored.
func (r *Registry) Record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.providers[name]
	if !ok {
		return
	}
	if err == nil {
		o.succeeded = r.now()
		return
	}
	o.failed = r.now()
	o.lastError = err.Error()
}

// Health returns the view of name, or nil when it is not registered.
func (r *Registry) Health(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.providers[name]
	if !ok {
		return nil
	}
	return o.view(name)
}

// All returns every provider ordered by name.
func (r *Registry) All() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Sorted(maps.Keys(r.providers))
	out := make([]*ProviderHealth, len(names))
	for i, name := range names {
		out[i] = r.providers[name].view(name)
	}
	return out
}

func (o *outcome) view(name string) *ProviderHealth {
	h := &ProviderHealth{
		Name:          name,
		CircuitState:  gobreaker.StateClosed,
		LastSuccessAt: timeOrNil(o.succeeded),
		LastFailureAt: timeOrNil(o.failed),
		LastError:     o.lastError,
	}
	if o.breaker != nil {
		h.CircuitState = o.breaker.State()
		h.Counts = o.breaker.Counts()
	}
	return h
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
