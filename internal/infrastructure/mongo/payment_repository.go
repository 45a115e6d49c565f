package mongo

import (
	"context"
	"fmt"

	domain "github.com/escabi/escabiapi/internal/domain/payment"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PaymentRepository appends raw gateway payloads. Nothing is ever updated.
type PaymentRepository struct {
	col *mongo.Collection
}

var _ domain.Repository = (*PaymentRepository)(nil)

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection(colPayments)}
}

func (r *PaymentRepository) Insert(ctx context.Context, rec *domain.Record) error {
	if _, err := r.col.InsertOne(ctx, toPaymentDoc(rec)); err != nil {
		return fmt.Errorf("mongo payments: insert: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.Record, error) {
	cur, err := r.col.Find(ctx,
		bson.D{{Key: "payment_id", Value: paymentID}},
		options.Find().SetSort(bson.D{{Key: "received_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo payments: list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo payments: decode: %w", err)
	}
	out := make([]*domain.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}
