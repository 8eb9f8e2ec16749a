package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news-ingest/pkg/domain"
)

// MongoStore persists articles in a MongoDB collection, keyed on canonical
// URL so re-running a window upserts instead of duplicating.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a store over the given connection string.
func NewMongoStore(connectionString, databaseName, collectionName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(databaseName).Collection(collectionName),
	}, nil
}

// Connect verifies connectivity.
func (s *MongoStore) Connect(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the underlying connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// SaveArticle upserts an article on its canonical URL.
func (s *MongoStore) SaveArticle(ctx context.Context, article *domain.Article) error {
	filter := bson.M{"url": article.URL}
	update := bson.M{"$set": article}
	opts := options.Update().SetUpsert(true)

	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// KnownURLs fetches every stored canonical URL as a set. Callers use it to
// skip articles already persisted by earlier runs.
func (s *MongoStore) KnownURLs(ctx context.Context) (map[string]bool, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"url": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query URLs: %w", err)
	}
	defer cursor.Close(ctx)

	urlSet := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			URL string `bson:"url"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		if result.URL != "" {
			urlSet[result.URL] = true
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return urlSet, nil
}
