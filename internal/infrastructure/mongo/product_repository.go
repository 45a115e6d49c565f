package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/escabi/escabiapi/internal/domain/catalog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProductRepository stores products. Stock changes are single-document $inc
// updates, conditional on the current stock when they decrement.
type ProductRepository struct {
	col *mongo.Collection
}

var _ domain.Repository = (*ProductRepository)(nil)

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(colProducts)}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	if _, err := r.col.InsertOne(ctx, toProductDoc(p)); err != nil {
		return fmt.Errorf("mongo products: insert: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var d productDoc
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &domain.NotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("mongo products: get: %w", err)
	}
	return d.domain(), nil
}

func (r *ProductRepository) List(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	filter := bson.D{}
	if category != "" {
		filter = append(filter, bson.E{Key: "category", Value: string(category)})
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo products: list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo products: decode: %w", err)
	}
	out := make([]*domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (r *ProductRepository) UpdatePrice(ctx context.Context, id string, price int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "price", Value: price},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo products: update price: %w", err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{ProductID: id}
	}
	return nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	filter := bson.D{{Key: "_id", Value: id}}
	if delta < 0 {
		filter = append(filter, bson.E{Key: "stock", Value: bson.D{{Key: "$gte", Value: -delta}}})
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "stock", Value: delta}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	var d productDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.explainMiss(ctx, id, -delta)
	}
	if err != nil {
		return 0, fmt.Errorf("mongo products: adjust stock: %w", err)
	}
	return d.Stock, nil
}

func (r *ProductRepository) DecrementIfAvailable(ctx context.Context, id string, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return r.AdjustStock(ctx, id, -qty)
}

func (r *ProductRepository) SetStock(ctx context.Context, id string, value int) error {
	if value < 0 {
		return domain.ErrNegativeStock
	}
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: value},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo products: set stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{ProductID: id}
	}
	return nil
}

// explainMiss tells a missing product from a failed stock condition.
func (r *ProductRepository) explainMiss(ctx context.Context, id string, requested int) (int, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Stock, &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: requested}
}
