package repository

import (
	"context"

	"divorcerisk/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnswerRepo handles MongoDB operations for raw partner answers
type AnswerRepo interface {
	InsertMany(ctx context.Context, answers []*model.StoredAnswer) error
	GetByAssessmentID(ctx context.Context, assessmentID string) ([]*model.StoredAnswer, error)
	CountByAssessmentID(ctx context.Context, assessmentID string) (int64, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{
		collection: db.Collection("answers"),
	}
}

func (r *answerRepo) InsertMany(ctx context.Context, answers []*model.StoredAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(answers))
	for i, a := range answers {
		docs[i] = a
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByAssessmentID returns answers in submission order
func (r *answerRepo) GetByAssessmentID(ctx context.Context, assessmentID string) ([]*model.StoredAnswer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"assessmentId": assessmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.StoredAnswer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) CountByAssessmentID(ctx context.Context, assessmentID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"assessmentId": assessmentID})
}
