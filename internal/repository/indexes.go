package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexSpec is one secondary index on a collection
type indexSpec struct {
	collection string
	keys       bson.D
	unique     bool
}

// recommendations are keyed by assessment id in _id and need no extra index
var indexSpecs = []indexSpec{
	{collection: "assessments", keys: bson.D{{Key: "clinicianId", Value: 1}, {Key: "createdAt", Value: -1}}},
	{collection: "answers", keys: bson.D{{Key: "assessmentId", Value: 1}, {Key: "position", Value: 1}}},
	{collection: "predictions", keys: bson.D{{Key: "assessmentId", Value: 1}, {Key: "createdAt", Value: -1}}},
}

// EnsureIndexes creates the indexes the repository queries rely on. It tries
// every index and returns the joined failures.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	var errs []error
	for _, spec := range indexSpecs {
		if err := createIndex(ctx, db.Collection(spec.collection), spec.keys, spec.unique); err != nil {
			errs = append(errs, fmt.Errorf("index on %s: %w", spec.collection, err))
		}
	}
	return errors.Join(errs...)
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	return err
}
