package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const revisionField = "revision"

// MongoStore implements Store on a MongoDB collection. Each document keeps
// its revision in a dedicated field; the conditional write filters on both
// _id and that field, so a stale revision can never commit.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a document store over the named collection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{
		collection: db.Collection(collection),
	}
}

func (s *MongoStore) Get(ctx context.Context, key string) (Document, Revision, error) {
	var raw bson.M
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get document %s: %w", key, err)
	}

	rev, _ := raw[revisionField].(string)
	delete(raw, "_id")
	delete(raw, revisionField)
	return Document(raw), Revision(rev), nil
}

func (s *MongoStore) ConditionalSet(ctx context.Context, key string, fields Document, expected Revision) (Revision, error) {
	set := bson.M{revisionField: string(newRevision())}
	for k, v := range fields {
		set[k] = v
	}

	filter := bson.M{"_id": key, revisionField: string(expected)}
	result, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return "", fmt.Errorf("failed to update document %s: %w", key, err)
	}

	if result.MatchedCount == 0 {
		// Either the document is gone or another writer moved the revision.
		count, countErr := s.collection.CountDocuments(ctx, bson.M{"_id": key})
		if countErr != nil {
			return "", fmt.Errorf("failed to check document %s: %w", key, countErr)
		}
		if count == 0 {
			return "", ErrNotFound
		}
		return "", ErrRevisionConflict
	}

	return Revision(set[revisionField].(string)), nil
}

func (s *MongoStore) Put(ctx context.Context, key string, fields Document) (Revision, error) {
	rev := newRevision()
	replacement := bson.M{revisionField: string(rev)}
	for k, v := range fields {
		replacement[k] = v
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, replacement, opts)
	if err != nil {
		return "", fmt.Errorf("failed to put document %s: %w", key, err)
	}
	return rev, nil
}

func (s *MongoStore) List(ctx context.Context) (map[string]Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]Document)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		key, _ := raw["_id"].(string)
		delete(raw, "_id")
		delete(raw, revisionField)
		result[key] = Document(raw)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return result, nil
}
