// Package mongo implements the domain repositories on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/escabi/escabiapi/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	colProducts = "products"
	colCarts    = "carts"
	colOrders   = "orders"
	colIntents  = "order_intents"
	colPayments = "payments"
	colAlerts   = "inventory_alerts"
	colUsers    = "users"
)

// Connect opens a client with the stable server API and pings it.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	if timeout > 0 {
		opts.SetTimeout(timeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, nil
}

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	{
		CollectionName: colUsers,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "username_lower", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_username_unique"),
		},
	},
	{
		CollectionName: colUsers,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},
	{
		CollectionName: colProducts,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_category_name"),
		},
	},
	{
		CollectionName: colOrders,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
	{
		CollectionName: colIntents,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_intent_state_created"),
		},
	},
	{
		CollectionName: colPayments,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "payment_id", Value: 1}, {Key: "received_at", Value: 1}},
			Options: options.Index().SetName("idx_payment_history"),
		},
	},
	// Dedup key for low-stock alerts.
	{
		CollectionName: colAlerts,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "message", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_alert_product_message_unique"),
		},
	},
}

// EnsureIndexes creates every required index. Existing indexes are a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log observability.Logger) error {
	if log == nil {
		log = observability.NopLogger()
	}
	for _, idx := range requiredIndexes {
		name, err := db.Collection(idx.CollectionName).Indexes().CreateOne(ctx, idx.IndexModel)
		if err != nil {
			return fmt.Errorf("mongo: create index on %s: %w", idx.CollectionName, err)
		}
		log.Debug("mongo_index_ready",
			observability.F("collection", idx.CollectionName),
			observability.F("index", name),
		)
	}
	return nil
}

// Store bundles the repositories that share one database handle.
type Store struct {
	Products *ProductRepository
	Carts    *CartRepository
	Orders   *OrderRepository
	Intents  *IntentRepository
	Payments *PaymentRepository
	Alerts   *AlertRepository
	Users    *UserRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Products: NewProductRepository(db),
		Carts:    NewCartRepository(db),
		Orders:   NewOrderRepository(db),
		Intents:  NewIntentRepository(db),
		Payments: NewPaymentRepository(db),
		Alerts:   NewAlertRepository(db),
		Users:    NewUserRepository(db),
	}
}
