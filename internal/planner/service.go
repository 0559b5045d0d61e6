// Package planner orchestrates destination checks, itinerary generation and
// activity swaps on top of the model client, the reconciler, the image
// fan-out and the per-session plan state.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tripweaver/tripweaver/internal/events"
	"github.com/tripweaver/tripweaver/internal/imagery"
	"github.com/tripweaver/tripweaver/internal/llm"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/planstate"
	"github.com/tripweaver/tripweaver/internal/prompt"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
	"github.com/tripweaver/tripweaver/internal/reconcile"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// ModelProvider is the registry name of the model backend.
const ModelProvider = "model"

// ServiceConfig holds configuration for creating a Service.
type ServiceConfig struct {
	Model       llm.Client
	ModelName   string
	MaxTokens   int
	Temperature float64

	// Retry applies to every model call. Retryable defaults to Transient.
	Retry resilience.RetryPolicy

	// Breaker guards the model. Nil disables circuit breaking.
	Breaker *gobreaker.CircuitBreaker[*llm.CompletionResponse]

	// CallTimeout bounds each model attempt. Zero means no bound.
	CallTimeout time.Duration

	Images   *imagery.Coordinator
	Sessions *Sessions
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// Service runs planner operations for many sessions.
type Service struct {
	model       llm.Client
	modelName   string
	maxTokens   int
	temperature float64
	retry       resilience.RetryPolicy
	breaker     *gobreaker.CircuitBreaker[*llm.CompletionResponse]
	callTimeout time.Duration
	images      *imagery.Coordinator
	sessions    *Sessions
	events      events.Publisher
	metrics     *metrics.Metrics
	registry    *resilience.Registry
	logger      zerolog.Logger
}

// GenerateResult is the outcome of a successful generation.
type GenerateResult struct {
	State  planstate.State
	Commit planstate.Commit
	Images imagery.Outcome

	// Destination is the name the plan was generated for, after correction.
	Destination string
	Anomalies   []string
}

// SwapRequest addresses the activity to replace. ActivityID wins when set;
// otherwise DayIndex and ActivityIndex are used.
type SwapRequest struct {
	ActivityID    string
	DayIndex      int
	ActivityIndex int
}

// SwapResult is the outcome of a successful swap.
type SwapResult struct {
	Activity  trip.Activity
	State     planstate.State
	Commit    planstate.Commit
	WithImage bool
}

// NewService creates a planner service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = Transient
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessions(SessionsConfig{Logger: cfg.Logger, Metrics: cfg.Metrics})
	}
	if cfg.Events == nil {
		cfg.Events = events.NoopPublisher{}
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(ModelProvider, breakerOrNil(cfg.Breaker))
	}

	return &Service{
		model:       cfg.Model,
		modelName:   cfg.ModelName,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		retry:       cfg.Retry,
		breaker:     cfg.Breaker,
		callTimeout: cfg.CallTimeout,
		images:      cfg.Images,
		sessions:    cfg.Sessions,
		events:      cfg.Events,
		metrics:     cfg.Metrics,
		registry:    cfg.Registry,
		logger:      cfg.Logger,
	}
}

// Sessions returns the session table.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Validate checks a destination. Any failure yields a valid result carrying
// the input so a flaky model never blocks planning.
func (s *Service) Validate(ctx context.Context, destination string) trip.DestinationResult {
	p := prompt.ValidateDestination(destination)

	raw, err := s.complete(ctx, trip.OpValidate, p)
	if err != nil {
		s.metrics.RecordValidation(metrics.OutcomeFallback)
		s.logger.Warn().
			Err(Classify(err)).
			Str("destination", destination).
			Msg("destination check failed, accepting input")
		return reconcile.Fallback(destination)
	}

	res, err := reconcile.Destination(raw, destination)
	if err != nil {
		s.metrics.RecordValidation(metrics.OutcomeFallback)
		s.logger.Warn().
			Err(err).
			Str("destination", destination).
			Msg("unreadable destination check, accepting input")
		return res
	}

	outcome := metrics.OutcomeSuccess
	if !res.IsValid {
		outcome = metrics.OutcomeInvalid
	}
	s.metrics.RecordValidation(outcome)
	return res
}

// Generate validates the preferences and the destination, then builds and
// illustrates a new plan that replaces the session's current one.
// On error the session is left untouched.
func (s *Service) Generate(ctx context.Context, sessionID string, prefs trip.Preferences) (*GenerateResult, error) {
	logger := s.logger.With().Str("session_id", sessionID).Logger()

	if err := prefs.Validate(); err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeInvalid)
		return nil, err
	}

	check := s.Validate(ctx, prefs.Destination)
	if !check.IsValid {
		s.metrics.RecordGeneration(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: %s", trip.ErrInvalidDestination, prefs.Destination)
	}
	if check.CorrectedName != "" && check.CorrectedName != prefs.Destination {
		logger.Info().
			Str("input", prefs.Destination).
			Str("corrected", check.CorrectedName).
			Msg("using corrected destination")
		prefs.Destination = check.CorrectedName
	}

	raw, err := s.complete(ctx, trip.OpGenerate, prompt.GeneratePlan(prefs))
	if err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeFailure)
		return nil, fmt.Errorf("generating plan: %w", Classify(err))
	}

	plan, err := reconcile.Plan(raw)
	if err != nil {
		s.metrics.RecordGeneration(metrics.OutcomeFailure)
		logger.Error().Err(err).Msg("model returned an unusable plan")
		return nil, err
	}

	anomalies := plan.Anomalies(prefs)
	for _, a := range anomalies {
		logger.Warn().Str("destination", prefs.Destination).Str("anomaly", a).Msg("plan anomaly")
	}

	var outcome imagery.Outcome
	if s.images != nil {
		outcome = s.images.IllustratePlan(ctx, plan, prefs.Destination)
	}

	mgr := s.sessions.Get(sessionID)
	commit := mgr.Replace(ctx, plan, prefs)
	state, err := mgr.Current()
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGeneration(metrics.OutcomeSuccess)
	logger.Info().
		Str("destination", prefs.Destination).
		Int("days", len(plan.Itinerary)).
		Int("activities", plan.ActivityCount()).
		Int("images", outcome.Succeeded).
		Int("image_failures", outcome.Failed).
		Uint64("version", commit.Version).
		Msg("generated plan")

	s.publish(ctx, events.TypeGenerated, sessionID, commit.Version, prefs.Destination, map[string]any{
		"days":       len(plan.Itinerary),
		"activities": plan.ActivityCount(),
		"images":     outcome.Succeeded,
	})

	return &GenerateResult{
		State:       state,
		Commit:      commit,
		Images:      outcome,
		Destination: prefs.Destination,
		Anomalies:   anomalies,
	}, nil
}

// Swap replaces one activity with a fresh suggestion from the model. A
// malformed suggestion returns ErrMalformedResponse and changes nothing.
func (s *Service) Swap(ctx context.Context, sessionID string, req SwapRequest) (*SwapResult, error) {
	logger := s.logger.With().Str("session_id", sessionID).Logger()
	mgr := s.sessions.Get(sessionID)

	state, err := mgr.Current()
	if err != nil {
		s.metrics.RecordSwap(metrics.OutcomeRejected)
		return nil, err
	}

	dayIdx, actIdx := req.DayIndex, req.ActivityIndex
	if req.ActivityID != "" {
		var ok bool
		dayIdx, actIdx, ok = state.Plan.Locate(req.ActivityID)
		if !ok {
			s.metrics.RecordSwap(metrics.OutcomeRejected)
			return nil, fmt.Errorf("%w: %s", trip.ErrActivityNotFound, req.ActivityID)
		}
	}
	if dayIdx < 0 || dayIdx >= len(state.Plan.Itinerary) ||
		actIdx < 0 || actIdx >= len(state.Plan.Itinerary[dayIdx].Activities) {
		s.metrics.RecordSwap(metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: day %d activity %d", trip.ErrActivityNotFound, dayIdx, actIdx)
	}

	day := state.Plan.Itinerary[dayIdx]
	target := day.Activities[actIdx]

	raw, err := s.complete(ctx, trip.OpSwap, prompt.SwapActivity(prompt.SwapContext{
		Preferences: state.Preferences,
		Day:         day,
		Replace:     target,
	}))
	if err != nil {
		s.metrics.RecordSwap(metrics.OutcomeFailure)
		return nil, fmt.Errorf("swapping activity: %w", Classify(err))
	}

	activity, err := reconcile.Activity(raw)
	if err != nil {
		s.metrics.RecordSwap(metrics.OutcomeInvalid)
		logger.Warn().Err(err).Str("activity_id", target.ID).Msg("model returned an unusable activity")
		return nil, err
	}

	withImage := false
	if s.images != nil {
		withImage = s.images.IllustrateOne(ctx, activity, state.Preferences.Destination)
	}

	var commit planstate.Commit
	if target.ID != "" {
		commit, err = mgr.ReplaceActivity(ctx, target.ID, *activity)
	} else {
		commit, err = mgr.SwapActivity(ctx, dayIdx, actIdx, *activity)
	}
	if err != nil {
		s.metrics.RecordSwap(metrics.OutcomeRejected)
		return nil, err
	}

	state, err = mgr.Current()
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSwap(metrics.OutcomeSuccess)
	logger.Info().
		Int("day", dayIdx+1).
		Int("activity", actIdx).
		Str("replaced", target.Description).
		Str("replacement", activity.Description).
		Bool("image", withImage).
		Uint64("version", commit.Version).
		Msg("swapped activity")

	s.publish(ctx, events.TypeActivitySwapped, sessionID, commit.Version, state.Preferences.Destination, map[string]any{
		"day":        dayIdx + 1,
		"replacedId": target.ID,
		"activityId": activity.ID,
	})

	return &SwapResult{Activity: *activity, State: state, Commit: commit, WithImage: withImage}, nil
}

// Current returns the session's plan, or ErrNoPlan.
func (s *Service) Current(sessionID string) (planstate.State, error) {
	return s.sessions.Get(sessionID).Current()
}

// SavedTrip returns the persisted snapshot without loading it.
func (s *Service) SavedTrip(ctx context.Context, sessionID string) (*trip.Snapshot, error) {
	return s.sessions.Get(sessionID).Saved(ctx)
}

// Resume loads the persisted snapshot into the session.
func (s *Service) Resume(ctx context.Context, sessionID string) (planstate.State, error) {
	return s.sessions.Get(sessionID).Restore(ctx)
}

// Dismiss deletes the persisted snapshot and keeps the session's plan.
func (s *Service) Dismiss(ctx context.Context, sessionID string) error {
	return s.sessions.Get(sessionID).Dismiss(ctx)
}

// Reset clears the session's plan and its snapshot.
func (s *Service) Reset(ctx context.Context, sessionID string) planstate.Commit {
	commit := s.sessions.Get(sessionID).Reset(ctx)
	s.publish(ctx, events.TypeReset, sessionID, commit.Version, "", nil)
	return commit
}

func (s *Service) complete(ctx context.Context, op trip.Operation, p prompt.Prompt) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("%w: no model configured", trip.ErrModelUnavailable)
	}

	req := &llm.CompletionRequest{
		Model:       s.modelName,
		Messages:    llm.UserPrompt(p.Text),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		JSON:        true,
	}

	start := time.Now()
	resp, err := resilience.Execute(ctx, s.retry, s.breaker, func(ctx context.Context) (*llm.CompletionResponse, error) {
		if s.callTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
		}
		return s.model.Complete(ctx, req)
	})
	elapsed := time.Since(start).Seconds()

	if s.registry != nil {
		s.registry.Record(ModelProvider, err)
	}
	if err != nil {
		s.metrics.RecordModelCall(string(op), metrics.OutcomeFailure, elapsed, 0, 0)
		s.logger.Error().
			Err(err).
			Str("operation", string(op)).
			Str("model", s.model.Name()).
			Float64("seconds", elapsed).
			Msg("model call failed")
		return "", err
	}

	s.metrics.RecordModelCall(string(op), metrics.OutcomeSuccess, elapsed, resp.TokensIn, resp.TokensOut)
	s.logger.Debug().
		Str("operation", string(op)).
		Str("model", resp.Model).
		Int("tokens_in", resp.TokensIn).
		Int("tokens_out", resp.TokensOut).
		Float64("seconds", elapsed).
		Msg("model call completed")
	return resp.Content, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, sessionID string, version uint64, destination string, data map[string]any) {
	evt := events.New(t, sessionID, version)
	evt.Destination = destination
	evt.Data = data
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", string(t)).
			Str("session_id", sessionID).
			Msg("failed to publish trip event")
	}
}

func breakerOrNil(cb *gobreaker.CircuitBreaker[*llm.CompletionResponse]) resilience.Breaker {
	if cb == nil {
		return nil
	}
	return cb
}

// IsClientError reports whether err was caused by the request rather than
// by the model or storage.
func IsClientError(err error) bool {
	return errors.Is(err, trip.ErrInvalidPreferences) ||
		errors.Is(err, trip.ErrInvalidDestination) ||
		errors.Is(err, trip.ErrNoPlan) ||
		errors.Is(err, trip.ErrActivityNotFound) ||
		errors.Is(err, trip.ErrNoSnapshot)
}
