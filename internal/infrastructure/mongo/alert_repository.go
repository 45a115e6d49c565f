package mongo

import (
	"context"
	"fmt"

	domain "github.com/escabi/escabiapi/internal/domain/inventory"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AlertRepository struct {
	col *mongo.Collection
}

var _ domain.AlertRepository = (*AlertRepository)(nil)

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{col: db.Collection(colAlerts)}
}

// InsertIfAbsent upserts on (product_id, message) with $setOnInsert, so an
// existing alert is left untouched. Two racing upserts are settled by the
// unique index; the loser reports false.
func (r *AlertRepository) InsertIfAbsent(ctx context.Context, a *domain.Alert) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "product_id", Value: a.ProductID}, {Key: "message", Value: a.Message}},
		bson.D{{Key: "$setOnInsert", Value: toAlertDoc(a)}},
		options.UpdateOne().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongo alerts: upsert: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *AlertRepository) List(ctx context.Context) ([]*domain.Alert, error) {
	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo alerts: list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []alertDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo alerts: decode: %w", err)
	}
	out := make([]*domain.Alert, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}
