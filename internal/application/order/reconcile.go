package order

import (
	"context"
	"errors"
	"time"

	"github.com/escabi/escabiapi/internal/application"
	domain "github.com/escabi/escabiapi/internal/domain/order"
)

const useCaseOrderReconcile = "order.reconcile_intents"

// DefaultReconcileGrace leaves in-flight creations alone.
const DefaultReconcileGrace = 5 * time.Minute

type ReconcileResult struct {
	Committed int
	Aborted   int
	Failed    int
}

// Reconciler settles intents left open by a crash during order creation.
type Reconciler struct {
	intents   domain.IntentRepository
	orders    domain.Repository
	lifecycle *Lifecycle
	grace     time.Duration
	in        application.Instrumentation
	now       func() time.Time
}

func NewReconciler(intents domain.IntentRepository, orders domain.Repository, lifecycle *Lifecycle, grace time.Duration, in application.Instrumentation) *Reconciler {
	if grace <= 0 {
		grace = DefaultReconcileGrace
	}
	return &Reconciler{
		intents:   intents,
		orders:    orders,
		lifecycle: lifecycle,
		grace:     grace,
		in:        in,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run commits intents whose order exists and releases the stock of the rest.
func (r *Reconciler) Run(ctx context.Context) (_ *ReconcileResult, err error) {
	ctx, iv := r.in.Begin(ctx, useCaseOrderReconcile, "ReconcileIntents")
	defer func() { iv.End(ctx, err) }()

	open, err := r.intents.ListOpen(ctx, r.now().Add(-r.grace))
	if err != nil {
		iv.Fail("INTENT_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}

	res := &ReconcileResult{}
	for _, intent := range open {
		_, gerr := r.orders.Get(ctx, intent.OrderID)
		state := domain.IntentCommitted
		switch {
		case gerr == nil:
		case errors.Is(gerr, domain.ErrNotFound):
			state = domain.IntentAborted
			r.lifecycle.release(ctx, intent.OrderID, intent.Reserved, "reconcile")
		default:
			res.Failed++
			continue
		}
		if cerr := r.intents.Close(ctx, intent.OrderID, state); cerr != nil {
			res.Failed++
			continue
		}
		if state == domain.IntentCommitted {
			res.Committed++
		} else {
			res.Aborted++
		}
	}

	iv.Field("committed", res.Committed)
	iv.Field("aborted", res.Aborted)
	iv.Field("failed", res.Failed)
	if res.Failed > 0 {
		iv.Status("PARTIAL")
	}
	return res, nil
}
