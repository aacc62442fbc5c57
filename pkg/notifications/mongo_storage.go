package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection used by MongoStorage.
const DefaultCollection = "notifications"

// maxUpdateAttempts bounds compare-and-set retries when a concurrent writer
// changes the status between read and update.
const maxUpdateAttempts = 3

// MongoStorage stores records in a MongoDB collection.
type MongoStorage struct {
	db   *mongo.Database
	coll *mongo.Collection
	now  func() time.Time
}

// MongoStorageOption configures a MongoStorage.
type MongoStorageOption func(*mongoStorageOptions)

type mongoStorageOptions struct {
	collection string
}

// WithCollection sets the collection name.
func WithCollection(name string) MongoStorageOption {
	return func(o *mongoStorageOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// NewMongoStorage creates a storage on db and ensures its indexes exist.
func NewMongoStorage(ctx context.Context, db *mongo.Database, opts ...MongoStorageOption) (*MongoStorage, error) {
	options := &mongoStorageOptions{collection: DefaultCollection}
	for _, opt := range opts {
		opt(options)
	}

	s := &MongoStorage{
		db:   db,
		coll: db.Collection(options.collection),
		now:  time.Now,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "to", Value: 1}, {Key: "subject", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrStorageFailure, fmt.Errorf("create indexes: %w", err))
	}
	return nil
}

func (s *MongoStorage) Create(ctx context.Context, rec Record) error {
	rec.normalize(s.now().UTC(), uuid.NewString)
	if err := rec.validate(); err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) UpsertStatus(ctx context.Context, target, label string, status Status, opts ...UpsertOption) error {
	if err := validateUpsert(target, status); err != nil {
		return err
	}

	for range maxUpdateAttempts {
		current, err := s.Latest(ctx, target, label)
		if errors.Is(err, ErrRecordNotFound) {
			return s.Create(ctx, newUpsertRecord(target, label, status, opts))
		}
		if err != nil {
			return err
		}

		set := bson.D{{Key: "updatedAt", Value: s.now().UTC()}}
		if current.Status.CanTransitionTo(status) {
			set = append(set, bson.E{Key: "status", Value: status})
		}

		res, err := s.coll.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: current.ID}, {Key: "status", Value: current.Status}},
			bson.D{{Key: "$set", Value: set}},
		)
		if err != nil {
			return errors.Join(ErrStorageFailure, err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}

	return errors.Join(ErrStorageFailure, fmt.Errorf("status of %q/%q changed concurrently", target, label))
}

func (s *MongoStorage) Latest(ctx context.Context, target, label string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx,
		bson.D{{Key: "to", Value: target}, {Key: "subject", Value: label}},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorageFailure, err)
	}
	return rec, nil
}

func (s *MongoStorage) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}
