package audit

import (
	"context"
	"time"

	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
)

const (
	publishPeer     = "outbox"
	publishEndpoint = domaudit.EventName
	publishTimeout  = 300 * time.Millisecond
)

// Recorder publishes audit events on the bus. Failures are logged and never
// returned: auditing must not fail the audited operation.
type Recorder struct {
	publisher    domoutbox.Publisher
	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewRecorder(publisher domoutbox.Publisher, tel observability.Observability) *Recorder {
	tel = observability.Or(tel)
	if publisher == nil {
		publisher = domoutbox.NopPublisher{}
	}
	return &Recorder{
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("component", "audit_recorder")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// Record stamps the event with request details from ctx and publishes it.
func (r *Recorder) Record(ctx context.Context, typ domaudit.EventType, userID string, details map[string]any) {
	if r == nil {
		return
	}
	evt := domaudit.New(ctx, typ, userID, details)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	outcome := observability.OutcomeSuccess
	err := r.publisher.Publish(pubCtx, evt)
	if err != nil {
		outcome = observability.OutcomeError
	} else if pubCtx.Err() != nil {
		outcome = observability.OutcomeCanceled
		err = pubCtx.Err()
	}
	cancel()

	r.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", outcome),
	)
	r.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)

	if err != nil {
		logctx.FromOr(ctx, r.log).Warn("audit_publish_failed",
			observability.F("event_type", string(typ)),
			observability.F("error", err.Error()),
		)
	}
}
