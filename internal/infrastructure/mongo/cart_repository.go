package mongo

import (
	"context"
	"fmt"
	"time"

	domain "github.com/escabi/escabiapi/internal/domain/cart"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CartRepository keeps one document per user, keyed by user id.
type CartRepository struct {
	col *mongo.Collection
}

var _ domain.Repository = (*CartRepository)(nil)

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(colCarts)}
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	var d cartDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "items", Value: bson.A{}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, fmt.Errorf("mongo carts: get or create: %w", err)
	}
	return d.domain(), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_, err := r.col.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: c.UserID}},
		toCartDoc(c),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo carts: save: %w", err)
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "items", Value: bson.A{}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo carts: clear: %w", err)
	}
	return nil
}
