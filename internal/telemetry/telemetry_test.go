package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripweaver/tripweaver/internal/telemetry"
)

func TestInit_DisabledUsesGlobalNoop(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "tripweaver-api",
		Environment:  "test",
		OTLPEndpoint: "localhost:4317",
	})
	require.NoError(t, err)

	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	require.NotNil(t, provider.Tracer)
	require.NotNil(t, provider.Meter)

	_, span := provider.Tracer.Start(ctx, "POST /v1/trip")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_ShutdownWithoutProviders(t *testing.T) {
	assert.NoError(t, (&telemetry.Provider{}).Shutdown(context.Background()))
}

func TestResource_DescribesService(t *testing.T) {
	res, err := telemetry.Resource(context.Background(), telemetry.Config{
		ServiceName:    "tripweaver-api",
		ServiceVersion: "1.4.0",
		Environment:    "staging",
	})
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "tripweaver-api", attrs["service.name"])
	assert.Equal(t, "1.4.0", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
}

func TestSampler_RootDecisions(t *testing.T) {
	params := sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		Name:          "POST /v1/trip",
	}

	tests := []struct {
		name  string
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{"always", 1, sdktrace.RecordAndSample},
		{"above range clamps to always", 3, sdktrace.RecordAndSample},
		{"never", 0, sdktrace.Drop},
		{"below range clamps to never", -1, sdktrace.Drop},
		{"fractional drops high trace IDs", 0.5, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, telemetry.Sampler(tt.ratio).ShouldSample(params).Decision)
		})
	}
}

func TestSampler_FollowsRemoteParent(t *testing.T) {
	tests := []struct {
		name  string
		flags trace.TraceFlags
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{"sampled parent overrides zero ratio", trace.FlagsSampled, 0, sdktrace.RecordAndSample},
		{"unsampled parent overrides full ratio", 0, 1, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    trace.TraceID{1},
				SpanID:     trace.SpanID{1},
				TraceFlags: tt.flags,
				Remote:     true,
			})
			ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

			result := telemetry.Sampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: ctx,
				TraceID:       parent.TraceID(),
				Name:          "GET /v1/trip",
			})
			assert.Equal(t, tt.want, result.Decision)
		})
	}
}
