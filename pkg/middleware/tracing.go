package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig controls which ops requests get a server span.
type TracingConfig struct {
	// Component names the tracer and is attached to every span.
	Component string
	// UntracedPrefixes lists path prefixes served without a span.
	UntracedPrefixes []string
}

// DefaultTracingConfig leaves health probes and metric scrapes untraced so
// the exported traces only show operator requests such as pprof captures.
func DefaultTracingConfig(component string) TracingConfig {
	return TracingConfig{
		Component:        component,
		UntracedPrefixes: []string{"/health/", "/metrics"},
	}
}

func (c TracingConfig) traced(path string) bool {
	for _, p := range c.UntracedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// Tracing starts a server span per traced request, continuing any W3C trace
// context sent by the caller.
func Tracing(cfg TracingConfig) func(http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/Salisuili/rest-frontend/" + cfg.Component)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.traced(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethod(r.Method),
					semconv.HTTPTarget(r.URL.RequestURI()),
					attribute.String("storefront.component", cfg.Component),
					attribute.String("http.client_ip", r.RemoteAddr),
				),
			)
			defer span.End()
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				span.SetName(r.Method + " " + rc.RoutePattern())
				span.SetAttributes(attribute.String("http.route", rc.RoutePattern()))
			}
			span.SetAttributes(
				semconv.HTTPStatusCode(rw.statusCode),
				attribute.Int("http.response_size", rw.bytes),
			)
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}
