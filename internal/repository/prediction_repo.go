package repository

import (
	"context"

	"divorcerisk/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PredictionRepo handles MongoDB operations for prediction history. Records are never updated.
type PredictionRepo interface {
	Append(ctx context.Context, p *model.PredictionRecord) error
	GetLatest(ctx context.Context, assessmentID string) (*model.PredictionRecord, error)
	GetHistory(ctx context.Context, assessmentID string, limit int) ([]*model.PredictionRecord, error)
}

type predictionRepo struct {
	collection *mongo.Collection
}

// NewPredictionRepo creates a new prediction repository
func NewPredictionRepo(db *mongo.Database) PredictionRepo {
	return &predictionRepo{
		collection: db.Collection("predictions"),
	}
}

func (r *predictionRepo) Append(ctx context.Context, p *model.PredictionRecord) error {
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *predictionRepo) GetLatest(ctx context.Context, assessmentID string) (*model.PredictionRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var p model.PredictionRecord
	err := r.collection.FindOne(ctx, bson.M{"assessmentId": assessmentID}, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetHistory returns newest first; limit <= 0 means no limit
func (r *predictionRepo) GetHistory(ctx context.Context, assessmentID string, limit int) ([]*model.PredictionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"assessmentId": assessmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.PredictionRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
