package audit

import (
	"context"
	"time"

	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
)

const workerService = "audit_worker"

// Worker drains audit events from the bus into the audit log.
type Worker struct {
	subscriber domoutbox.Subscriber
	wrap       func(domoutbox.Handler) domoutbox.Handler
	sink       observability.Logger

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewWorker writes each event to sink, a logger dedicated to the audit trail.
// wrap decorates the bus handler, typically with the worker context middleware.
func NewWorker(
	subscriber domoutbox.Subscriber,
	sink observability.Logger,
	wrap func(domoutbox.Handler) domoutbox.Handler,
	tel observability.Observability,
) *Worker {
	tel = observability.Or(tel)
	if sink == nil {
		sink = tel.Logger()
	}
	if wrap == nil {
		wrap = func(h domoutbox.Handler) domoutbox.Handler { return h }
	}
	return &Worker{
		subscriber:   subscriber,
		wrap:         wrap,
		sink:         sink,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domaudit.EventName, w.wrap(w.Handle))
}

// Handle writes one audit event.
func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) error {
	const useCase = "audit.worker.recorded"
	start := time.Now()

	evt, ok := e.(domaudit.Event)
	if !ok {
		w.observe(useCase, "ignored", start)
		return nil
	}

	fields := []observability.Field{
		observability.F("event_type", string(evt.Type)),
		observability.F("timestamp", evt.Timestamp.Format(time.RFC3339Nano)),
	}
	if evt.UserID != "" {
		fields = append(fields, observability.F("user_id", evt.UserID))
	}
	if evt.ClientIP != "" {
		fields = append(fields, observability.F("client_ip", evt.ClientIP))
	}
	if evt.Method != "" {
		fields = append(fields,
			observability.F("method", evt.Method),
			observability.F("path", evt.Path),
		)
	}
	if len(evt.Details) > 0 {
		fields = append(fields, observability.F("details", evt.Details))
	}
	w.sink.Info("audit_event", fields...)

	logctx.FromOr(ctx, w.log).Debug("audit_event_written",
		observability.F("event_type", string(evt.Type)),
	)
	w.observe(useCase, observability.OutcomeSuccess, start)
	return nil
}

func (w *Worker) observe(useCase, outcome string, start time.Time) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	w.durHistogram.Observe(time.Since(start).Seconds(),
		observability.L("use_case", useCase),
	)
}
