// Package telemetry wires logging, Prometheus metrics and OpenTelemetry
// tracing around solves.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/azybler/delaypath/pkg/config"
	"github.com/azybler/delaypath/pkg/sssp"
)

const instrumentationName = "github.com/azybler/delaypath"

// ErrUnknownExporter is returned by Setup for an unsupported trace exporter.
var ErrUnknownExporter = errors.New("telemetry: unknown trace exporter")

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span named name as a child of ctx.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed with err. A nil err sets status Ok.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SolveTrace returns hooks that open one child span of ctx per solver phase,
// using the hook timestamps as span bounds, and feed the phase histogram.
// The hooks belong to a single solve.
func SolveTrace(ctx context.Context) sssp.Hooks {
	type open struct {
		span  trace.Span
		start time.Time
	}
	spans := make(map[sssp.Phase]open)

	return sssp.Hooks{
		OnPhaseStart: func(algorithm string, phase sssp.Phase, at time.Time) {
			_, span := tracer().Start(ctx, "sssp."+string(phase),
				trace.WithTimestamp(at),
				trace.WithAttributes(
					attribute.String("sssp.algorithm", algorithm),
					attribute.String("sssp.phase", string(phase)),
				))
			spans[phase] = open{span: span, start: at}
		},
		OnPhaseEnd: func(algorithm string, phase sssp.Phase, at time.Time) {
			o, ok := spans[phase]
			if !ok {
				return
			}
			delete(spans, phase)
			o.span.End(trace.WithTimestamp(at))
			observePhase(algorithm, string(phase), at.Sub(o.start))
		},
	}
}

// Setup installs a global tracer provider for cfg.TraceExporter and returns
// its shutdown function. "none" installs nothing; "stdout" writes spans to w.
func Setup(cfg config.TelemetryConfig, w io.Writer) (func(context.Context) error, error) {
	switch cfg.TraceExporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
