package order

import (
	"context"

	"github.com/escabi/escabiapi/internal/application"
	domain "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list_for_user"
)

// QueryService serves read-only order lookups with ownership checks.
type QueryService struct {
	orders domain.Repository
	in     application.Instrumentation
}

func NewQueryService(orders domain.Repository, in application.Instrumentation) *QueryService {
	return &QueryService{orders: orders, in: in}
}

// Get returns the order when the caller owns it or is an admin.
func (s *QueryService) Get(ctx context.Context, caller domuser.Identity, id string) (_ *domain.Order, err error) {
	ctx, iv := s.in.Begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", id))
	defer func() { iv.End(ctx, err) }()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		iv.Fail("ORDER_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if !caller.CanRead(o.UserID) {
		iv.Fail("FORBIDDEN")
		return nil, ErrForbidden
	}
	return o, nil
}

// ListForUser returns the caller's orders newest first.
func (s *QueryService) ListForUser(ctx context.Context, caller domuser.Identity) (_ []*domain.Order, err error) {
	ctx, iv := s.in.Begin(ctx, useCaseOrderList, "ListOrders")
	defer func() { iv.End(ctx, err) }()

	out, err := s.orders.ListByUser(ctx, caller.UserID)
	if err != nil {
		iv.Fail("ORDER_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	iv.Field("count", len(out))
	return out, nil
}
