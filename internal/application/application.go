package application

import (
	"context"
	"time"

	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Instrumentation holds the logger, tracer and RED instruments shared by the
// use cases of one service. Build it once at construction time.
type Instrumentation struct {
	log    observability.Logger
	tracer observability.Tracer
	req    observability.Counter   // usecase_requests_total{use_case,outcome}
	dur    observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstrumentation(tel observability.Observability, service string) Instrumentation {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return Instrumentation{
		log:    tel.Logger().With(observability.F("service", service)),
		tracer: tel.Tracer(),
		req:    m.Counter(observability.MUsecaseRequests),
		dur:    m.Histogram(observability.MUsecaseDuration),
	}
}

// Logger returns the service logger.
func (in Instrumentation) Logger() observability.Logger { return in.log }

// Tracer returns the service tracer.
func (in Instrumentation) Tracer() observability.Tracer { return in.tracer }

// Requests returns the use case request counter.
func (in Instrumentation) Requests() observability.Counter { return in.req }

// Durations returns the use case latency histogram.
func (in Instrumentation) Durations() observability.Histogram { return in.dur }

// Invocation is one running use case. End must be called exactly once.
type Invocation struct {
	useCase string
	span    trace.Span
	start   time.Time
	logger  observability.Logger
	in      Instrumentation

	outcome string
	status  string
	fields  []observability.Field
}

// Begin starts the span and the latency clock for useCase.
func (in Instrumentation) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Invocation) {
	if in.tracer == nil {
		in.tracer = observability.NopTracer()
	}
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &Invocation{
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		logger:  logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase)),
		in:      in,
		outcome: observability.OutcomeSuccess,
		status:  "OK",
	}
}

// Logger is the invocation-scoped logger.
func (iv *Invocation) Logger() observability.Logger { return iv.logger }

// Span is the use case span.
func (iv *Invocation) Span() trace.Span { return iv.span }

// Fail marks the invocation as failed with a machine-readable status code.
func (iv *Invocation) Fail(status string) {
	iv.outcome, iv.status = observability.OutcomeError, status
}

// Status overrides the status code while keeping the outcome.
func (iv *Invocation) Status(status string) { iv.status = status }

// Field attaches an extra field to the closing log line.
func (iv *Invocation) Field(k string, v any) {
	iv.fields = append(iv.fields, observability.F(k, v))
}

// End closes the span, records metrics and writes the use_case_done line.
func (iv *Invocation) End(ctx context.Context, err error) {
	lat := time.Since(iv.start).Seconds()
	if err != nil && iv.outcome == observability.OutcomeSuccess {
		iv.outcome, iv.status = observability.OutcomeError, "INTERNAL"
	}

	if iv.span != nil {
		if err != nil {
			iv.span.RecordError(err)
			iv.span.SetStatus(codes.Error, iv.status)
		} else {
			iv.span.SetStatus(codes.Ok, iv.status)
		}
		iv.span.End()
	}

	if iv.in.req != nil {
		iv.in.req.Add(1,
			observability.L("use_case", iv.useCase),
			observability.L("outcome", iv.outcome),
		)
	}
	if iv.in.dur != nil {
		iv.in.dur.Observe(lat, observability.L("use_case", iv.useCase))
	}

	fields := append([]observability.Field{
		observability.F("outcome", iv.outcome),
		observability.F("status", iv.status),
		observability.F("latency_seconds", lat),
	}, iv.fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	iv.logger.Info("use_case_done", fields...)
}
