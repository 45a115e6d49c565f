package payment

import (
	"context"
	"strings"
	"time"

	domorder "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService       = "payment-service"
	useCaseCreateIntent  = "payment.create_intent"
	useCaseHandleWebhook = "payment.handle_webhook"
	spanPrefix           = "UC."
)

// IntentConfig carries the URLs and currency used to build checkout requests.
type IntentConfig struct {
	Currency       string
	WebhookBaseURL string
}

func (c IntentConfig) url(path string) string {
	return strings.TrimRight(c.WebhookBaseURL, "/") + path
}

// CreatePaymentIntentUseCase opens a hosted checkout for a pending order.
type CreatePaymentIntentUseCase struct {
	orders  domorder.Repository
	gateway Gateway
	cfg     IntentConfig
	tel     observability.Observability
	now     func() time.Time

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewCreatePaymentIntentUseCase(orders domorder.Repository, gateway Gateway, cfg IntentConfig, tel observability.Observability) *CreatePaymentIntentUseCase {
	tel = observability.Or(tel)
	if cfg.Currency == "" {
		cfg.Currency = "ARS"
	}
	m := tel.Metrics()
	return &CreatePaymentIntentUseCase{
		orders:       orders,
		gateway:      gateway,
		cfg:          cfg,
		tel:          tel,
		now:          func() time.Time { return time.Now().UTC() },
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

type CreatePaymentIntentInput struct {
	Caller  domuser.Identity
	OrderID string
}

type CreatePaymentIntentResult struct {
	PreferenceID string
	InitPoint    string
}

func (uc *CreatePaymentIntentUseCase) Execute(ctx context.Context, cmd CreatePaymentIntentInput) (_ *CreatePaymentIntentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCreateIntent),
		observability.F("order_id", cmd.OrderID),
		observability.F("gateway", uc.gateway.Name()),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"CreatePaymentIntent",
		attribute.String("use_case", useCaseCreateIntent),
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.gateway", uc.gateway.Name()),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"
	var preferenceID string

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCreateIntent),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseCreateIntent))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if preferenceID != "" {
			fields = append(fields, observability.F("preference_id", preferenceID))
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

	if cmd.OrderID == "" {
		outcome, statusText = observability.OutcomeError, "ORDER_ID_REQUIRED"
		return nil, ErrValidation
	}

	o, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		outcome, statusText = observability.OutcomeError, "ORDER_LOOKUP_FAILED"
		return nil, wrapRepositoryError(err)
	}
	if !o.OwnedBy(cmd.Caller.UserID) {
		outcome, statusText = observability.OutcomeError, "FORBIDDEN"
		return nil, ErrForbidden
	}
	if !o.Payable() {
		outcome, statusText = observability.OutcomeError, "ORDER_NOT_PAYABLE"
		return nil, ErrOrderNotPayable
	}

	req := PreferenceRequest{
		Items:             make([]PreferenceItem, 0, len(o.Items)),
		ExternalReference: o.ID,
		NotificationURL:   uc.cfg.url("/payments/webhook"),
		BackURLs: BackURLs{
			Success: uc.cfg.url("/payment-success"),
			Failure: uc.cfg.url("/payment-failure"),
			Pending: uc.cfg.url("/payment-pending"),
		},
		AutoReturn: true,
	}
	for _, it := range o.Items {
		req.Items = append(req.Items, PreferenceItem{
			Title:      it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.PriceAtPurchase,
			CurrencyID: uc.cfg.Currency,
		})
	}

	extStart := time.Now()
	pref, gerr := uc.gateway.CreatePreference(ctx, req)
	extOutcome := observability.OutcomeSuccess
	if gerr != nil {
		extOutcome = observability.OutcomeError
	}
	uc.extCounter.Add(1,
		observability.L("peer", uc.gateway.Name()),
		observability.L("endpoint", "create_preference"),
		observability.L("outcome", extOutcome),
	)
	uc.extHistogram.Observe(time.Since(extStart).Seconds(),
		observability.L("peer", uc.gateway.Name()),
		observability.L("endpoint", "create_preference"),
	)
	if gerr != nil {
		outcome, statusText = observability.OutcomeError, "GATEWAY_FAILED"
		return nil, wrapGatewayError(gerr)
	}
	preferenceID = pref.ID
	span.SetAttributes(attribute.String("payment.preference_id", pref.ID))

	if err := uc.orders.SetPreference(ctx, o.ID, pref.ID, uc.now()); err != nil {
		outcome, statusText = observability.OutcomeError, "REPO_UPDATE_FAILED"
		return nil, wrapRepositoryError(err)
	}

	return &CreatePaymentIntentResult{PreferenceID: pref.ID, InitPoint: pref.CheckoutURL}, nil
}
