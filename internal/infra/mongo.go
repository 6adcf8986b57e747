package infra

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo wraps the client and the application database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo connects, verifies the connection with a ping and returns the
// wrapped client.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(20 * time.Second).
		SetServerSelectionTimeout(15 * time.Second).
		SetMaxPoolSize(50)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

func (m *Mongo) Users() *mongo.Collection       { return m.DB.Collection("users") }
func (m *Mongo) Assets() *mongo.Collection      { return m.DB.Collection("assets") }
func (m *Mongo) Allocations() *mongo.Collection { return m.DB.Collection("allocations") }

// EnsureIndexes creates the indexes the business rules depend on. The
// partial unique index on active allocations is the store-level guard for
// the one-active-allocation-per-asset invariant: a race that slips past the
// application check surfaces as a duplicate key error instead of a second
// active allocation.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.Users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "department", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: users indexes: %w", err)
	}

	_, err = m.Assets().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "serialNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "expiryDate", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: assets indexes: %w", err)
	}

	_, err = m.Allocations().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "assetId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "allocationDate", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: allocations indexes: %w", err)
	}
	return nil
}

// Close disconnects the client with a bounded timeout.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
