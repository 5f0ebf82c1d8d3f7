package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxUpdateAttempts bounds the compare-and-swap loop in MongoStore.Update.
const maxUpdateAttempts = 5

var _ KV = (*MongoStore)(nil)

// MongoStore keeps each key as one document in the "kv" collection. Writes
// through Update are guarded by a revision counter instead of a transaction,
// so a standalone mongod is enough.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type kvDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	Rev       int64     `bson:"rev"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// OpenMongo connects to uri and uses the kv collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("kv"),
	}, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) find(ctx context.Context, key string) (kvDoc, error) {
	var d kvDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return kvDoc{}, ErrNotFound
	}
	return d, err
}

func (m *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	d, err := m.find(ctx, key)
	if err != nil {
		return nil, err
	}
	return []byte(d.Value), nil
}

func (m *MongoStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$set": bson.M{"value": string(value), "updated_at": time.Now().UTC()},
			"$inc": bson.M{"rev": 1},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Update retries when another writer bumped the revision between the read
// and the write.
func (m *MongoStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		cur, err := m.find(ctx, key)
		exists := true
		if errors.Is(err, ErrNotFound) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("reading %q: %w", key, err)
		}

		var in []byte
		if exists {
			in = []byte(cur.Value)
		}
		next, err := fn(in, exists)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if !exists {
			_, err := m.coll.InsertOne(ctx, kvDoc{Key: key, Value: string(next), Rev: 1, UpdatedAt: now})
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return fmt.Errorf("inserting %q: %w", key, err)
			}
			return nil
		}

		res, err := m.coll.UpdateOne(ctx,
			bson.M{"_id": key, "rev": cur.Rev},
			bson.M{
				"$set": bson.M{"value": string(next), "updated_at": now},
				"$inc": bson.M{"rev": 1},
			},
		)
		if err != nil {
			return fmt.Errorf("writing %q: %w", key, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("updating %q: %w", key, ErrConflict)
}

func (m *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Keys lists the stored keys with their value sizes, newest first.
func (m *MongoStore) Keys(ctx context.Context) ([]Entry, error) {
	cur, err := m.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	var docs []kvDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, Entry{Key: d.Key, Size: len(d.Value), UpdatedAt: d.UpdatedAt})
	}
	return entries, nil
}
