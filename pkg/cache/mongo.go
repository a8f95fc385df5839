package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection artifacts are stored in.
const DefaultMongoCollection = "artifacts"

// MongoCache stores entries as documents in a MongoDB collection. A TTL
// index on expires_at lets the server drop expired entries; Get also checks
// expiry since the TTL monitor only runs once a minute.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoEntry is the stored document.
type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects to uri, pings the server and ensures the TTL index
// on database.collection exists. An empty collection uses
// DefaultMongoCollection.
func NewMongoCache(ctx context.Context, uri, database, collection string) (*MongoCache, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: mongo: database name required", ErrUnavailable)
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", ErrUnavailable, err)
	}

	err = RetryWithBackoff(ctx, func() error {
		return classifyMongo(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}

	c := &MongoCache{client: client, coll: client.Database(database).Collection(collection)}
	if err := c.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *MongoCache) ensureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

// Get retrieves a value from MongoDB.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry mongoEntry
	var hit bool
	err := RetryWithBackoff(ctx, func() error {
		err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
		if errors.Is(err, mongo.ErrNoDocuments) {
			hit = false
			return nil
		}
		if err != nil {
			return classifyMongo(err)
		}
		hit = true
		return nil
	})
	if err != nil || !hit {
		return nil, false, err
	}
	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set upserts a value. A zero ttl stores without expiry.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	entry := mongoEntry{Key: key, Data: data, CreatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		entry.ExpiresAt = &exp
	}
	return RetryWithBackoff(ctx, func() error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
		return classifyMongo(err)
	})
}

// Delete removes a value from MongoDB.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, func() error {
		_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
		return classifyMongo(err)
	})
}

// Clear removes every document in the collection.
func (c *MongoCache) Clear(ctx context.Context) (int, error) {
	res, err := c.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo delete: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(fmt.Errorf("%w: mongo: %v", ErrNetwork, err))
	}
	return err
}

var (
	_ Cache   = (*MongoCache)(nil)
	_ Clearer = (*MongoCache)(nil)
)
