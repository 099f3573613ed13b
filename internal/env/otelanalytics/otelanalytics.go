// Package otelanalytics implements internal/env.Analytics on top of the
// OpenTelemetry SDK's span and metric surface, matching the teacher's own
// OTel dependency (go.opentelemetry.io/otel, otel/sdk, otel/metric,
// otel/trace) without requiring a concrete OTLP exporter, since the core
// library has no long-running daemon of its own to export continuously
// (see DESIGN.md "Dropped teacher dependencies").
package otelanalytics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Analytics emits one span per AnalyticsContext call and counts events by
// name through an injected meter/tracer pair, leaving exporter wiring
// entirely to the host shell.
type Analytics struct {
	tracer  trace.Tracer
	counter metric.Int64Counter
}

// New builds an Analytics emitter from a tracer/meter pair the host has
// already wired to whatever exporter it prefers.
func New(tracer trace.Tracer, meter metric.Meter) (*Analytics, error) {
	counter, err := meter.Int64Counter("watchstate_core_events_total",
		metric.WithDescription("count of analytics events emitted by the core runtime"))
	if err != nil {
		return nil, err
	}
	return &Analytics{tracer: tracer, counter: counter}, nil
}

func (a *Analytics) AnalyticsContext(ctx context.Context, event string, streamingServer string, path string) map[string]any {
	_, span := a.tracer.Start(ctx, event, trace.WithAttributes(
		attribute.String("streaming_server", streamingServer),
		attribute.String("path", path),
	))
	defer span.End()

	a.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))

	return map[string]any{
		"event":           event,
		"streamingServer": streamingServer,
		"path":            path,
		"at":              time.Now().UTC(),
	}
}

func (a *Analytics) FlushAnalytics(ctx context.Context) error {
	// Exporter flushing is the host's responsibility (it owns the
	// TracerProvider/MeterProvider); this is a no-op hook point kept so
	// Env satisfies the interface uniformly.
	return nil
}
