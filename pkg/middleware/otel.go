// Package middleware provides dispatch hooks that add observability
// around navigation events: OpenTelemetry tracing and Prometheus metrics.
package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navhist/pkg/history"
)

// Default tracer name for navhist applications.
const defaultTracerName = "navhist"

// OTelConfig configures the OpenTelemetry hook.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "navhist").
	TracerName string

	// SessionID, if set, is attached to every span.
	SessionID string

	// Filter determines which changes to trace. Return true to trace.
	// If nil, all changes are traced.
	Filter func(ch history.Change) bool

	// AttributeExtractor extracts custom attributes per change.
	AttributeExtractor func(ch history.Change) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry hook.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) { c.TracerName = name }
}

// WithSessionID attaches a session identifier to every span.
func WithSessionID(id string) OTelOption {
	return func(c *OTelConfig) { c.SessionID = id }
}

// WithChangeFilter sets a filter function for changes.
func WithChangeFilter(filter func(ch history.Change) bool) OTelOption {
	return func(c *OTelConfig) { c.Filter = filter }
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(fn func(ch history.Change) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) { c.AttributeExtractor = fn }
}

// OpenTelemetry returns a hook that creates a span per navigation event.
//
// The span is named "navhist.<kind>" and carries the URL, kind, and
// session ID (when configured) as attributes. Dispatch errors are
// recorded and reflected in the span status.
//
// The tracer comes from the global OpenTelemetry tracer provider;
// configure it in main() before wiring trackers.
func OpenTelemetry(opts ...OTelOption) history.Hook {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(ch history.Change, next func() error) error {
		if config.Filter != nil && !config.Filter(ch) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("navhist.url", ch.URL),
			attribute.String("navhist.kind", ch.Kind.String()),
		}
		if config.SessionID != "" {
			attrs = append(attrs, attribute.String("navhist.session_id", config.SessionID))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ch)...)
		}

		_, span := config.tracer.Start(
			context.Background(),
			"navhist."+ch.Kind.String(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		err := next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
