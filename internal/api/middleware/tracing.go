package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tripweaver/tripweaver/internal/api/middleware"

// Span attribute keys set by Tracing.
const (
	AttrRequestID  = "request.id"
	AttrSessionID  = "tripweaver.session_id"
	AttrStatusCode = "http.status_code"
)

// Tracing starts a server span per request, continuing any trace context
// carried in the headers. The span is renamed after the chi route once it
// is known, and 5xx responses mark it as failed.
func Tracing(service string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", r.Method),
				attribute.String("url.scheme", scheme(r)),
				attribute.String("url.path", r.URL.Path),
				attribute.String("server.address", r.Host),
				attribute.String("user_agent.original", r.UserAgent()),
			}
			if service != "" {
				attrs = append(attrs, attribute.String("service.name", service))
			}
			if requestID := GetRequestID(ctx); requestID != "" {
				attrs = append(attrs, attribute.String(AttrRequestID, requestID))
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := routePattern(r)
			if route != r.URL.Path {
				span.SetName(r.Method + " " + route)
			}
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int(AttrStatusCode, rec.status),
				attribute.Int64("http.response.body.size", rec.written),
			)
			if sessionID := sessionOf(r); sessionID != "" {
				span.SetAttributes(attribute.String(AttrSessionID, sessionID))
			}
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
