package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	appaudit "github.com/escabi/escabiapi/internal/application/audit"
	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domcart "github.com/escabi/escabiapi/internal/domain/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domain "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	spanPrefix         = "UC."
)

// CreateOrderUseCase turns the caller's cart into a pending order.
//
// Stock is reserved item by item with a conditional decrement before the
// order is inserted. Every reservation is journaled on an intent so that a
// failure, or a crash, leaves nothing reserved without an order behind it.
type CreateOrderUseCase struct {
	products    domcatalog.Repository
	carts       domcart.Repository
	orders      domain.Repository
	intents     domain.IntentRepository
	idGenerator IDGenerator
	observer    StockObserver
	lifecycle   *Lifecycle
	audit       *appaudit.Recorder
	tel         observability.Observability

	// Base logger with fixed fields prebound.
	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCreateOrderUseCase(
	products domcatalog.Repository,
	carts domcart.Repository,
	orders domain.Repository,
	intents domain.IntentRepository,
	idGen IDGenerator,
	lifecycle *Lifecycle,
	observer StockObserver,
	recorder *appaudit.Recorder,
	tel observability.Observability,
) *CreateOrderUseCase {
	tel = observability.Or(tel)
	if observer == nil {
		observer = nopObserver{}
	}
	metricsProvider := tel.Metrics()

	return &CreateOrderUseCase{
		products:     products,
		carts:        carts,
		orders:       orders,
		intents:      intents,
		idGenerator:  idGen,
		observer:     observer,
		lifecycle:    lifecycle,
		audit:        recorder,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

type CreateOrderInput struct {
	Caller          domuser.Identity
	ShippingAddress domain.Address
}

type CreateOrderResult struct {
	Order *domain.Order
}

// Execute performs the order creation flow.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseOrderCreate),
		observability.F("user_id", cmd.Caller.UserID),
	)

	var orderID string
	var compensationFailures int

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.user_id", cmd.Caller.UserID),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"

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

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseOrderCreate),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseOrderCreate),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if compensationFailures > 0 {
			fields = append(fields, observability.F("compensation_failures", compensationFailures))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.Caller.UserID == "" {
		outcome, statusText = observability.OutcomeError, "USER_ID_REQUIRED"
		return nil, newValidation("user id is required")
	}
	if !cmd.Caller.AgeVerified {
		outcome, statusText = observability.OutcomeError, "AGE_NOT_VERIFIED"
		return nil, ErrAgeNotVerified
	}
	if verr := cmd.ShippingAddress.Validate(); verr != nil {
		outcome, statusText = observability.OutcomeError, "ADDRESS_INVALID"
		return nil, fmt.Errorf("%w: %w", ErrValidation, verr)
	}

	c, err := uc.carts.GetOrCreate(ctx, cmd.Caller.UserID)
	if err != nil {
		outcome, statusText = observability.OutcomeError, "CART_LOOKUP_FAILED"
		return nil, wrapRepositoryError(err)
	}
	if c.IsEmpty() {
		outcome, statusText = observability.OutcomeError, "CART_EMPTY"
		return nil, ErrCartEmpty
	}

	items := make([]domain.Item, 0, len(c.Items))
	for _, line := range c.Items {
		p, gerr := uc.products.Get(ctx, line.ProductID)
		if gerr != nil {
			if errors.Is(gerr, domcatalog.ErrNotFound) {
				outcome, statusText = observability.OutcomeError, "PRODUCT_NOT_FOUND"
				return nil, &domcatalog.NotFoundError{ProductID: line.ProductID}
			}
			outcome, statusText = observability.OutcomeError, "PRODUCT_LOOKUP_FAILED"
			return nil, wrapRepositoryError(gerr)
		}
		if p.Stock < line.Quantity {
			outcome, statusText = observability.OutcomeError, "INSUFFICIENT_STOCK"
			return nil, &domcatalog.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: line.Quantity}
		}
		items = append(items, domain.Item{
			ProductID:       p.ID,
			Name:            p.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: p.Price,
		})
	}

	orderID = uc.idGenerator.NewID()
	entity, derr := domain.New(orderID, cmd.Caller.UserID, items, cmd.ShippingAddress)
	if derr != nil {
		outcome, statusText = observability.OutcomeError, "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrValidation, derr)
	}
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Int64("order.total_amount", entity.TotalAmount),
		attribute.Int("order.items", len(entity.Items)),
	)

	if err := uc.intents.Open(ctx, domain.NewIntent(orderID, cmd.Caller.UserID)); err != nil {
		outcome, statusText = observability.OutcomeError, "INTENT_OPEN_FAILED"
		return nil, wrapRepositoryError(err)
	}

	reserved := make([]domain.Reservation, 0, len(entity.Items))
	abort := func(status string) {
		outcome, statusText = observability.OutcomeError, status
		compensationFailures = uc.lifecycle.release(ctx, orderID, reserved, "compensation")
		if cerr := uc.intents.Close(ctx, orderID, domain.IntentAborted); cerr != nil {
			logger.Warn("order_intent_close_failed",
				observability.F("order_id", orderID),
				observability.F("state", string(domain.IntentAborted)),
				observability.F("error", cerr.Error()),
			)
		}
	}

	for _, it := range entity.Items {
		if _, rerr := uc.products.DecrementIfAvailable(ctx, it.ProductID, it.Quantity); rerr != nil {
			abort(reserveStatus(rerr))
			return nil, reserveError(it, rerr)
		}
		res := domain.Reservation{ProductID: it.ProductID, Quantity: it.Quantity}
		reserved = append(reserved, res)
		if jerr := uc.intents.AddReservation(ctx, orderID, res); jerr != nil {
			logger.Warn("order_intent_journal_failed",
				observability.F("order_id", orderID),
				observability.F("product_id", it.ProductID),
				observability.F("error", jerr.Error()),
			)
		}
		uc.observer.OnStockChanged(ctx, it.ProductID)
	}
	span.AddEvent("order.stock_reserved")

	if err := ctx.Err(); err != nil {
		abort("CONTEXT_CANCELED")
		return nil, err
	}
	if err := uc.orders.Insert(ctx, entity); err != nil {
		abort("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	if cerr := uc.intents.Close(ctx, orderID, domain.IntentCommitted); cerr != nil {
		logger.Warn("order_intent_close_failed",
			observability.F("order_id", orderID),
			observability.F("state", string(domain.IntentCommitted)),
			observability.F("error", cerr.Error()),
		)
	}
	if cerr := uc.carts.Clear(ctx, cmd.Caller.UserID); cerr != nil {
		statusText = "CART_CLEAR_FAILED"
		logger.Warn("cart_clear_failed", observability.F("error", cerr.Error()))
	}

	uc.audit.Record(ctx, domaudit.OrderCreated, cmd.Caller.UserID, map[string]any{
		"order_id":     orderID,
		"total_amount": entity.TotalAmount,
		"items":        len(entity.Items),
	})

	span.SetAttributes(attribute.String("order.status", string(entity.Status)))
	span.AddEvent("order.created",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
		),
	)

	return &CreateOrderResult{Order: entity}, nil
}

func reserveStatus(err error) string {
	switch {
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, domcatalog.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	default:
		return "STOCK_RESERVE_FAILED"
	}
}

// reserveError keeps the category of a failed conditional decrement. A lost
// race is reported as a shortage, never swallowed.
func reserveError(it domain.Item, err error) error {
	var short *domcatalog.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return &domcatalog.InsufficientStockError{ProductID: it.ProductID, Available: short.Available, Requested: it.Quantity}
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return &domcatalog.InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity}
	case errors.Is(err, domcatalog.ErrNotFound):
		return &domcatalog.NotFoundError{ProductID: it.ProductID}
	default:
		return wrapRepositoryError(err)
	}
}
