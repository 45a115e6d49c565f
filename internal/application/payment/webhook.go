package payment

import (
	"context"
	"errors"
	"time"

	appaudit "github.com/escabi/escabiapi/internal/application/audit"
	apporder "github.com/escabi/escabiapi/internal/application/order"
	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Webhook actions, reported on the result and as the metric label.
const (
	ActionRejected   = "rejected_signature"
	ActionIgnored    = "ignored"
	ActionRecorded   = "recorded"
	ActionProcessing = "order_processing"
	ActionCancelled  = "order_cancelled"
	ActionFailed     = "failed"
)

// HandleWebhookUseCase reacts to gateway callbacks. It never fails the
// caller: the gateway always gets an acknowledgement and errors are logged.
type HandleWebhookUseCase struct {
	gateway   Gateway
	orders    domorder.Repository
	records   dompay.Repository
	lifecycle *apporder.Lifecycle
	ids       IDGenerator
	audit     *appaudit.Recorder
	tel       observability.Observability
	now       func() time.Time

	log           observability.Logger
	reqCounter    observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram  observability.Histogram // usecase_duration_seconds{use_case}
	notifications observability.Counter   // payment_webhook_notifications_total{gateway,action}
}

func NewHandleWebhookUseCase(
	gateway Gateway,
	orders domorder.Repository,
	records dompay.Repository,
	lifecycle *apporder.Lifecycle,
	ids IDGenerator,
	recorder *appaudit.Recorder,
	tel observability.Observability,
) *HandleWebhookUseCase {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &HandleWebhookUseCase{
		gateway:       gateway,
		orders:        orders,
		records:       records,
		lifecycle:     lifecycle,
		ids:           ids,
		audit:         recorder,
		tel:           tel,
		now:           func() time.Time { return time.Now().UTC() },
		log:           tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:    m.Counter(observability.MUsecaseRequests),
		durHistogram:  m.Histogram(observability.MUsecaseDuration),
		notifications: m.Counter(observability.MWebhookNotifications),
	}
}

type HandleWebhookResult struct {
	Action    string
	PaymentID string
	OrderID   string
	Status    dompay.Status
	Restocked bool
}

// Execute processes one callback. The returned error is informational; the
// result is always safe to acknowledge.
func (uc *HandleWebhookUseCase) Execute(ctx context.Context, req WebhookRequest) (_ *HandleWebhookResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseHandleWebhook),
		observability.F("gateway", uc.gateway.Name()),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"HandleWebhook",
		attribute.String("use_case", useCaseHandleWebhook),
		attribute.String("payment.gateway", uc.gateway.Name()),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"
	result := &HandleWebhookResult{Action: ActionIgnored}

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			span.SetAttributes(attribute.String("payment.webhook_action", result.Action))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseHandleWebhook),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseHandleWebhook))
		uc.notifications.Add(1,
			observability.L("gateway", uc.gateway.Name()),
			observability.L("action", result.Action),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("action", result.Action),
		}
		if result.PaymentID != "" {
			fields = append(fields, observability.F("payment_id", result.PaymentID))
		}
		if result.OrderID != "" {
			fields = append(fields, observability.F("order_id", result.OrderID))
		}
		if result.Status != "" {
			fields = append(fields, observability.F("payment_status", string(result.Status)))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	note, perr := uc.gateway.ParseWebhook(ctx, req)
	if perr != nil {
		if errors.Is(perr, dompay.ErrInvalidSignature) {
			outcome, statusText = observability.OutcomeError, "INVALID_SIGNATURE"
			result.Action = ActionRejected
			logger.Warn("webhook_signature_rejected", observability.F("error", perr.Error()))
		} else {
			outcome, statusText = observability.OutcomeError, "PAYLOAD_INVALID"
			result.Action = ActionFailed
		}
		return result, perr
	}

	pn, ok := note.(dompay.PaymentNotification)
	if !ok {
		statusText = "UNKNOWN_TOPIC"
		if un, isUnknown := note.(dompay.UnknownNotification); isUnknown {
			logger.Debug("webhook_ignored",
				observability.F("topic", un.Topic),
				observability.F("id", un.ID),
			)
		}
		return result, nil
	}
	result.PaymentID = pn.PaymentID

	p, gerr := uc.gateway.GetPayment(ctx, pn.PaymentID)
	if gerr != nil {
		outcome, statusText = observability.OutcomeError, "GATEWAY_FAILED"
		result.Action = ActionFailed
		return result, wrapGatewayError(gerr)
	}
	result.Status = p.Status
	result.OrderID = p.ExternalReference
	result.Action = ActionRecorded

	rec := &dompay.Record{
		ID:                uc.ids.NewID(),
		Gateway:           uc.gateway.Name(),
		PaymentID:         p.ID,
		ExternalReference: p.ExternalReference,
		Status:            p.Status,
		Raw:               p.Raw,
		ReceivedAt:        uc.now(),
	}
	if ierr := uc.records.Insert(ctx, rec); ierr != nil {
		statusText = "RECORD_INSERT_FAILED"
		logger.Warn("payment_record_insert_failed",
			observability.F("payment_id", p.ID),
			observability.F("error", ierr.Error()),
		)
	}

	uc.audit.Record(ctx, domaudit.PaymentWebhookReceived, "", map[string]any{
		"gateway":            uc.gateway.Name(),
		"payment_id":         p.ID,
		"status":             string(p.Status),
		"external_reference": p.ExternalReference,
	})

	if p.ExternalReference == "" {
		statusText = "NO_EXTERNAL_REFERENCE"
		return result, nil
	}

	o, oerr := uc.orders.Get(ctx, p.ExternalReference)
	if oerr != nil {
		if errors.Is(oerr, domorder.ErrNotFound) {
			statusText = "ORDER_NOT_FOUND"
			logger.Warn("webhook_order_not_found", observability.F("order_id", p.ExternalReference))
			return result, nil
		}
		outcome, statusText = observability.OutcomeError, "ORDER_LOOKUP_FAILED"
		result.Action = ActionFailed
		return result, wrapRepositoryError(oerr)
	}

	// Approval only advances a pending order. A failed payment cancels the
	// order from any status; Advance restocks only when leaving a
	// non-releasing status, so a repeat delivery cannot restock twice.
	var target domorder.Status
	switch {
	case p.Status == dompay.StatusApproved:
		if o.Status != domorder.StatusPending {
			statusText = "ORDER_NOT_PENDING"
			return result, nil
		}
		target = domorder.StatusProcessing
	case p.Status.Failed():
		if o.Status == domorder.StatusCancelled {
			statusText = "ORDER_ALREADY_CANCELLED"
			return result, nil
		}
		target = domorder.StatusCancelled
	default:
		statusText = "NO_TRANSITION"
		return result, nil
	}

	_, restocked, aerr := uc.lifecycle.Advance(ctx, o, target, p.ID)
	if aerr != nil {
		if errors.Is(aerr, domorder.ErrStatusConflict) {
			// A concurrent callback moved the order first.
			statusText = "STATUS_CONFLICT"
			return result, nil
		}
		outcome, statusText = observability.OutcomeError, "REPO_UPDATE_FAILED"
		result.Action = ActionFailed
		return result, wrapRepositoryError(aerr)
	}
	result.Restocked = restocked
	if target == domorder.StatusProcessing {
		result.Action = ActionProcessing
	} else {
		result.Action = ActionCancelled
	}

	uc.audit.Record(ctx, domaudit.OrderStatusChanged, o.UserID, map[string]any{
		"order_id":   o.ID,
		"old_status": string(o.Status),
		"new_status": string(target),
		"payment_id": p.ID,
		"restocked":  restocked,
	})
	return result, nil
}
