package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/escabi/escabiapi/internal/domain/order"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type OrderRepository struct {
	col *mongo.Collection
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(colOrders)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.col.InsertOne(ctx, toOrderDoc(o))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("mongo orders: insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var d orderDoc
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo orders: get: %w", err)
	}
	return d.domain(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	cur, err := r.col.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo orders: list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo orders: decode: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

// UpdateStatus is a compare-and-swap: the filter carries the expected status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, c domain.StatusChange) (*domain.Order, error) {
	set := bson.D{
		{Key: "status", Value: string(c.To)},
		{Key: "updated_at", Value: c.At},
	}
	if c.PaymentID != "" {
		set = append(set, bson.E{Key: "payment_id", Value: c.PaymentID})
	}

	var d orderDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: string(c.From)}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := r.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("%w: expected %s, found %s", domain.ErrStatusConflict, c.From, cur.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo orders: update status: %w", err)
	}
	return d.domain(), nil
}

func (r *OrderRepository) SetPreference(ctx context.Context, id, preferenceID string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "payment_preference_id", Value: preferenceID},
			{Key: "updated_at", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo orders: set preference: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IntentRepository journals in-flight order creations, keyed by order id.
type IntentRepository struct {
	col *mongo.Collection
}

var _ domain.IntentRepository = (*IntentRepository)(nil)

func NewIntentRepository(db *mongo.Database) *IntentRepository {
	return &IntentRepository{col: db.Collection(colIntents)}
}

func (r *IntentRepository) Open(ctx context.Context, i *domain.Intent) error {
	_, err := r.col.InsertOne(ctx, toIntentDoc(i))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("mongo intents: open: %w", err)
	}
	return nil
}

func (r *IntentRepository) AddReservation(ctx context.Context, orderID string, res domain.Reservation) error {
	return r.update(ctx, orderID, bson.D{
		{Key: "$push", Value: bson.D{{Key: "reserved", Value: reservationDoc{ProductID: res.ProductID, Quantity: res.Quantity}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	})
}

func (r *IntentRepository) Close(ctx context.Context, orderID string, state domain.IntentState) error {
	return r.update(ctx, orderID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "state", Value: string(state)},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
	})
}

func (r *IntentRepository) ListOpen(ctx context.Context, createdBefore time.Time) ([]*domain.Intent, error) {
	cur, err := r.col.Find(ctx,
		bson.D{
			{Key: "state", Value: string(domain.IntentOpen)},
			{Key: "created_at", Value: bson.D{{Key: "$lt", Value: createdBefore}}},
		},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo intents: list open: %w", err)
	}
	defer cur.Close(ctx)

	var docs []intentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo intents: decode: %w", err)
	}
	out := make([]*domain.Intent, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (r *IntentRepository) update(ctx context.Context, orderID string, update bson.D) error {
	res, err := r.col.UpdateOne(ctx, bson.D{{Key: "_id", Value: orderID}}, update)
	if err != nil {
		return fmt.Errorf("mongo intents: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
