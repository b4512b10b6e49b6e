package repository

import (
	"context"

	"divorcerisk/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecommendationRepo handles MongoDB operations for the live program of each assessment
type RecommendationRepo interface {
	Upsert(ctx context.Context, rec *model.RecommendationRecord) error
	Get(ctx context.Context, assessmentID string) (*model.RecommendationRecord, error)
}

type recommendationRepo struct {
	collection *mongo.Collection
}

// NewRecommendationRepo creates a new recommendation repository
func NewRecommendationRepo(db *mongo.Database) RecommendationRepo {
	return &recommendationRepo{
		collection: db.Collection("recommendations"),
	}
}

func (r *recommendationRepo) Upsert(ctx context.Context, rec *model.RecommendationRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.AssessmentID}, rec, opts)
	return err
}

func (r *recommendationRepo) Get(ctx context.Context, assessmentID string) (*model.RecommendationRecord, error) {
	var rec model.RecommendationRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": assessmentID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
