package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the shop database.
const (
	ProductsCollectionName    = "products"
	OrdersCollectionName      = "orders"
	IdempotencyCollectionName = "idempotency"
)

// DB holds the client and the collections the service uses.
type DB struct {
	Client                *mongo.Client
	Database              *mongo.Database
	ProductsCollection    *mongo.Collection
	OrdersCollection      *mongo.Collection
	IdempotencyCollection *mongo.Collection
}

// Connect dials MongoDB, pings it and binds the collections.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d := client.Database(database)
	return &DB{
		Client:                client,
		Database:              d,
		ProductsCollection:    d.Collection(ProductsCollectionName),
		OrdersCollection:      d.Collection(OrdersCollectionName),
		IdempotencyCollection: d.Collection(IdempotencyCollectionName),
	}, nil
}

// CreateIndexes makes product lookups by productid unique and fast.
// Order and idempotency indexes are owned by their packages.
func (d *DB) CreateIndexes(ctx context.Context) error {
	_, err := d.ProductsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "productid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create product index: %w", err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
