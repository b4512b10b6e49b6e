package repository

import (
	"context"
	"time"

	"divorcerisk/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AssessmentRepo handles MongoDB operations for assessments
type AssessmentRepo interface {
	Create(ctx context.Context, a *model.Assessment) error
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
	GetByClinicianID(ctx context.Context, clinicianID string) ([]*model.Assessment, error)
	UpdateStatus(ctx context.Context, id string, status model.AssessmentStatus) error
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a new assessment repository
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

func (r *assessmentRepo) Create(ctx context.Context, a *model.Assessment) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *assessmentRepo) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepo) GetByClinicianID(ctx context.Context, clinicianID string) ([]*model.Assessment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"clinicianId": clinicianID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Assessment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) UpdateStatus(ctx context.Context, id string, status model.AssessmentStatus) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	return err
}
