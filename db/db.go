package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"wolontariat/internal/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore implements Store on a MongoDB database
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	log      *zap.Logger
}

// extractDBName parses the database name from the URI, defaulting to "wolontariat"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "wolontariat"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "wolontariat"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(ctx context.Context, uri string, log *zap.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	log.Info("using database", zap.String("database", dbName))

	return &MongoStore{
		client:   client,
		database: client.Database(dbName),
		log:      log.Named("mongo"),
	}, nil
}

// Database exposes the underlying database for components that need raw access
func (s *MongoStore) Database() *mongo.Database {
	return s.database
}

// Disconnect closes the client
func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GetCollection returns a collection by name
func (s *MongoStore) GetCollection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	err := s.GetCollection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	return translate(err)
}

func (s *MongoStore) Create(ctx context.Context, collection string, doc interface{}) error {
	_, err := s.GetCollection(collection).InsertOne(ctx, doc)
	return translate(err)
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	res, err := s.GetCollection(collection).UpdateOne(ctx, bson.M{"_id": id}, setAndBump(fields))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields bson.M) error {
	coll := s.GetCollection(collection)
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id, VersionField: version}, setAndBump(fields))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Distinguish a missing document from a stale version
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return apperr.ErrConflict
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if filter == nil {
		filter = bson.M{}
	}
	cursor, err := s.GetCollection(collection).Find(ctx, filter)
	if err != nil {
		return translate(err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return translate(err)
	}
	return nil
}

func setAndBump(fields bson.M) bson.M {
	return bson.M{
		"$set": fields,
		"$inc": bson.M{VersionField: 1},
	}
}

// translate maps driver errors onto the store error taxonomy
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return apperr.ErrDuplicate
	default:
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
}
