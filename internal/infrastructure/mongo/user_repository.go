package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/escabi/escabiapi/internal/domain/user"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserRepository relies on the unique username_lower and email indexes
// for duplicate detection.
type UserRepository struct {
	col *mongo.Collection
}

var _ domain.Repository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(colUsers)}
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	_, err := r.col.InsertOne(ctx, toUserDoc(u))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("mongo users: insert: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	l := strings.ToLower(strings.TrimSpace(login))
	return r.findOne(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username_lower", Value: l}},
		bson.D{{Key: "email", Value: l}},
	}}})
}

func (r *UserRepository) SetAgeVerified(ctx context.Context, id string, verified bool) error {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "age_verified", Value: verified}}}},
	)
	if err != nil {
		return fmt.Errorf("mongo users: set age verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var d userDoc
	err := r.col.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo users: find: %w", err)
	}
	return d.domain(), nil
}
