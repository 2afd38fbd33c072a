package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "scenes"

var (
	tracerName   = defaultTracerName
	tracerNameMu sync.RWMutex
)

// SetTracerName sets the name of the tracer spans are created with.
func SetTracerName(name string) {
	if name == "" {
		name = defaultTracerName
	}
	tracerNameMu.Lock()
	tracerName = name
	tracerNameMu.Unlock()
}

// Tracer returns the tracer from the global provider.
func Tracer() trace.Tracer {
	tracerNameMu.RLock()
	defer tracerNameMu.RUnlock()
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name with the given attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
