// Package imagery fans out per-activity image requests and merges the
// settled results back into a plan by position.
package imagery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/tripweaver/tripweaver/internal/llm"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/prompt"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// CoordinatorConfig holds configuration for creating a Coordinator.
type CoordinatorConfig struct {
	Generator llm.ImageGenerator
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics

	// Limiter paces request starts. Nil starts every request at once.
	Limiter *rate.Limiter

	// Timeout bounds each image request. Zero means no per-request bound.
	Timeout time.Duration

	// MaxDimension downscales larger images. Zero keeps the original size.
	MaxDimension int
}

// Coordinator issues image requests concurrently.
type Coordinator struct {
	generator    llm.ImageGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	limiter      *rate.Limiter
	timeout      time.Duration
	maxDimension int
}

// Outcome summarises a fan-out.
type Outcome struct {
	Requested int
	Succeeded int
	Failed    int
}

// NewCoordinator creates a new image fan-out coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		generator:    cfg.Generator,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		limiter:      cfg.Limiter,
		timeout:      cfg.Timeout,
		maxDimension: cfg.MaxDimension,
	}
}

// IllustratePlan requests one image per activity and writes each result into
// the activity at the same position. Failed slots are left without an image.
func (c *Coordinator) IllustratePlan(ctx context.Context, plan *trip.Plan, destination string) Outcome {
	activities := lo.FlatMap(plan.Itinerary, func(d trip.Day, _ int) []trip.Activity {
		return d.Activities
	})
	descriptions := lo.Map(activities, func(a trip.Activity, _ int) string {
		return a.Description
	})

	images := c.Illustrate(ctx, descriptions, destination)

	k := 0
	for i := range plan.Itinerary {
		for j := range plan.Itinerary[i].Activities {
			plan.Itinerary[i].Activities[j].ImageURL = images[k]
			k++
		}
	}

	succeeded := lo.CountBy(images, func(s string) bool { return s != "" })
	outcome := Outcome{
		Requested: len(images),
		Succeeded: succeeded,
		Failed:    len(images) - succeeded,
	}

	c.logger.Info().
		Str("destination", destination).
		Int("requested", outcome.Requested).
		Int("succeeded", outcome.Succeeded).
		Int("failed", outcome.Failed).
		Msg("activity images settled")

	return outcome
}

// IllustrateOne requests an image for a single activity. It reports whether
// an image was attached.
func (c *Coordinator) IllustrateOne(ctx context.Context, activity *trip.Activity, destination string) bool {
	images := c.Illustrate(ctx, []string{activity.Description}, destination)
	activity.ImageURL = images[0]
	return images[0] != ""
}

// Illustrate runs one request per description and waits for all of them.
// The result has the same length and order as descriptions; a failed slot
// holds the empty string.
func (c *Coordinator) Illustrate(ctx context.Context, descriptions []string, destination string) []string {
	results := make([]string, len(descriptions))
	if len(descriptions) == 0 {
		return results
	}

	var wg sync.WaitGroup
	for i, desc := range descriptions {
		wg.Add(1)
		go func(idx int, desc string) {
			defer wg.Done()
			url, err := c.request(ctx, desc, destination)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Int("slot", idx).
					Str("destination", destination).
					Msg("activity image failed")
				return
			}
			results[idx] = url
		}(i, desc)
	}
	wg.Wait()

	succeeded := lo.CountBy(results, func(s string) bool { return s != "" })
	c.metrics.RecordImages(succeeded, len(results)-succeeded)

	return results
}

func (c *Coordinator) request(ctx context.Context, description, destination string) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("%w: no image generator configured", trip.ErrImageGeneration)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: waiting for rate limiter: %w", trip.ErrImageGeneration, err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url, err := c.generator.GenerateImage(ctx, prompt.Image(description, destination))
	if err != nil {
		return "", fmt.Errorf("%w: %w", trip.ErrImageGeneration, err)
	}
	if url == "" {
		return "", fmt.Errorf("%w: empty image reference", trip.ErrImageGeneration)
	}
	return Downscale(url, c.maxDimension), nil
}
