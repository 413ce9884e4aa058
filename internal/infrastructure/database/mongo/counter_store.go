// Package mongo stores document number counters in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/your-org/forms-backend/internal/domain/sequence"
)

const countersCollection = "counters"

type counterDoc struct {
	ID         string    `bson:"_id"`
	Prefix     string    `bson:"prefix"`
	Year       int       `bson:"year"`
	LastIssued int64     `bson:"last_issued"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// CounterStore increments counters with FindOneAndUpdate
type CounterStore struct {
	client *mongo.Client
	dbName string
}

// NewCounterStore connects to MongoDB and verifies the connection
func NewCounterStore(ctx context.Context, uri string, dbName string) (*CounterStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &CounterStore{
		client: client,
		dbName: dbName,
	}, nil
}

// DocumentID returns the _id used for a counter
func DocumentID(key sequence.Key) string {
	return fmt.Sprintf("%s:%d", key.Prefix, key.Year)
}

// Increment implements sequence.CounterStore
func (s *CounterStore) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	coll := s.client.Database(s.dbName).Collection(countersCollection)

	filter := bson.M{"_id": DocumentID(key)}
	update := bson.M{
		"$inc": bson.M{"last_issued": int64(1)},
		"$set": bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{
			"prefix": key.Prefix,
			"year":   key.Year,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		// two first-time upserts on the same _id race; the loser may simply retry
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %v", sequence.ErrConflict, err)
		}
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return doc.LastIssued, nil
}

// Health pings the server
func (s *CounterStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *CounterStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
