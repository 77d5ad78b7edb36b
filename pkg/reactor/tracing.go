package reactor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of reactor spans.
const tracerName = "github.com/vango-dev/prop/pkg/reactor"

func resolveTracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// startSpan opens a span tagged with the reactor name.
func (r *Reactor) startSpan(ctx context.Context, st *settings, name string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("reactor.name", st.name)),
	)
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// traceJob wraps fn in a "reactor.job" span when job tracing is enabled.
func (r *Reactor) traceJob(st *settings, queued time.Time, fn func()) func() {
	if !st.traceJobs {
		return fn
	}
	return func() {
		_, span := r.startSpan(context.Background(), st, "reactor.job")
		span.SetAttributes(attribute.Int64("reactor.job.wait_us", time.Since(queued).Microseconds()))
		defer span.End()
		fn()
	}
}
