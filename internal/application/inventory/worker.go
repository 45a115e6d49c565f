package inventory

import (
	"context"
	"fmt"
	"time"

	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService = "inventory_worker"
	spanPrefix    = "UC."
)

// Notifier tells staff about a new low-stock alert.
type Notifier interface {
	Notify(ctx context.Context, a dominv.Alert) error
}

// Worker forwards low-stock events to the staff notifier off the request path.
type Worker struct {
	subscriber domoutbox.Subscriber
	notifier   Notifier
	wrap       func(domoutbox.Handler) domoutbox.Handler
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	notifier Notifier,
	wrap func(domoutbox.Handler) domoutbox.Handler,
	tel observability.Observability,
) *Worker {
	tel = observability.Or(tel)
	if wrap == nil {
		wrap = func(h domoutbox.Handler) domoutbox.Handler { return h }
	}
	m := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		notifier:     notifier,
		wrap:         wrap,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(dominv.LowStockDetectedEventName, w.wrap(w.Handle))
}

// Handle delivers one LowStockDetectedEvent. Other events are ignored.
func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) error {
	const useCase = "inventory.worker.notify_low_stock"
	evt, ok := e.(dominv.LowStockDetectedEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"NotifyLowStock",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.String("product.id", evt.Alert.ProductID),
	)
	start := time.Now()
	outcome, status := observability.OutcomeSuccess, "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCase),
		observability.F("event", e.EventName()),
		observability.F("alert_id", evt.Alert.ID),
		observability.F("product_id", evt.Alert.ProductID),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	var err error
	defer func() {
		lat := time.Since(start).Seconds()
		w.count(useCase, outcome)
		w.durHistogram.Observe(lat, observability.L("use_case", useCase))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
			observability.F("current_stock", evt.Alert.CurrentStock),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)

		if outcome == observability.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	if err = w.notifier.Notify(ctx, evt.Alert); err != nil {
		outcome, status = observability.OutcomeError, "NOTIFY_FAILED"
		return fmt.Errorf("worker: low stock notification: %w", err)
	}
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}
