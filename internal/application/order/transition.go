package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	appaudit "github.com/escabi/escabiapi/internal/application/audit"
	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domain "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const useCaseOrderTransition = "order.transition_status"

// TransitionStatusUseCase is the admin status override.
type TransitionStatusUseCase struct {
	orders    domain.Repository
	lifecycle *Lifecycle
	policy    domain.Policy
	audit     *appaudit.Recorder
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewTransitionStatusUseCase(
	orders domain.Repository,
	lifecycle *Lifecycle,
	policy domain.Policy,
	recorder *appaudit.Recorder,
	tel observability.Observability,
) *TransitionStatusUseCase {
	tel = observability.Or(tel)
	if policy == nil {
		policy = domain.PermissivePolicy{}
	}
	return &TransitionStatusUseCase{
		orders:       orders,
		lifecycle:    lifecycle,
		policy:       policy,
		audit:        recorder,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type TransitionStatusInput struct {
	Caller    domuser.Identity
	OrderID   string
	NewStatus string
}

type TransitionStatusResult struct {
	Order     *domain.Order
	Previous  domain.Status
	Restocked bool
}

func (uc *TransitionStatusUseCase) Execute(ctx context.Context, cmd TransitionStatusInput) (_ *TransitionStatusResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseOrderTransition),
		observability.F("order_id", cmd.OrderID),
		observability.F("new_status", cmd.NewStatus),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"TransitionStatus",
		attribute.String("use_case", useCaseOrderTransition),
		attribute.String("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"
	var result *TransitionStatusResult

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
			observability.L("use_case", useCaseOrderTransition),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderTransition),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if result != nil {
			fields = append(fields,
				observability.F("previous_status", string(result.Previous)),
				observability.F("restocked", result.Restocked),
			)
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

	if !cmd.Caller.IsAdmin() {
		outcome, statusText = observability.OutcomeError, "FORBIDDEN"
		return nil, ErrForbidden
	}
	to, perr := domain.ParseStatus(cmd.NewStatus)
	if perr != nil {
		outcome, statusText = observability.OutcomeError, "STATUS_INVALID"
		return nil, fmt.Errorf("%w: %w", ErrValidation, perr)
	}

	current, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		outcome, statusText = observability.OutcomeError, "ORDER_LOOKUP_FAILED"
		return nil, wrapRepositoryError(err)
	}
	if !uc.policy.Allows(current.Status, to) {
		outcome, statusText = observability.OutcomeError, "TRANSITION_NOT_ALLOWED"
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}

	updated, restocked, err := uc.lifecycle.Advance(ctx, current, to, "")
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			outcome, statusText = observability.OutcomeError, "STATUS_CONFLICT"
		} else {
			outcome, statusText = observability.OutcomeError, "REPO_UPDATE_FAILED"
		}
		return nil, wrapRepositoryError(err)
	}
	result = &TransitionStatusResult{Order: updated, Previous: current.Status, Restocked: restocked}

	span.SetAttributes(
		attribute.String("order.previous_status", string(current.Status)),
		attribute.String("order.status", string(updated.Status)),
		attribute.Bool("order.restocked", restocked),
	)

	uc.audit.Record(ctx, domaudit.OrderStatusChanged, cmd.Caller.UserID, map[string]any{
		"order_id":   updated.ID,
		"old_status": string(current.Status),
		"new_status": string(updated.Status),
		"restocked":  restocked,
	})

	return result, nil
}
