package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on. Safe to
// call on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type spec struct {
		coll string
		keys bson.D
		opts *options.IndexOptions
	}
	specs := []spec{
		{tenantUserCollection, bson.D{{Key: "username", Value: 1}}, options.Index().SetUnique(true)},
		{loginTokenCollection, bson.D{{Key: "token", Value: 1}}, options.Index().SetUnique(true)},
		{identityCollection, bson.D{{Key: "email", Value: 1}}, options.Index().SetUnique(true)},
		// One backend identity per tenant user; the exchange relies on this
		// to stay idempotent under concurrent first logins.
		{identityCollection, bson.D{{Key: "tenant_user_id", Value: 1}},
			options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"tenant_user_id": bson.M{"$type": "string"}})},
		{adminCollection, bson.D{{Key: "email", Value: 1}}, options.Index().SetUnique(true)},
		{progressCollection, bson.D{
			{Key: "cartorio_id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "video_lesson_id", Value: 1},
		}, options.Index().SetUnique(true)},
	}

	for _, s := range specs {
		_, err := db.Collection(s.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: s.keys, Options: s.opts})
		if err != nil {
			return fmt.Errorf("mongo ensure index on %s: %w", s.coll, err)
		}
	}
	return nil
}
