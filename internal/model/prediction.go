package model

import "time"

// PredictionResult is the classifier outcome for a combined vector
type PredictionResult struct {
	Probability    float64       `json:"probability"`
	PredictedClass int           `json:"predictedClass"`
	Vector         FeatureVector `json:"-"`
	Audit          []AuditEntry  `json:"audit"`
}

// PredictionRecord is a persisted prediction. Records are append-only.
type PredictionRecord struct {
	ID             string              `json:"id" bson:"_id"`
	AssessmentID   string              `json:"assessmentId" bson:"assessmentId"`
	Probability    float64             `json:"probability" bson:"probability"`
	PredictedClass int                 `json:"predictedClass" bson:"predictedClass"`
	Threshold      float64             `json:"threshold" bson:"threshold"`
	Vector         map[string]*float64 `json:"vector" bson:"vector"`
	Audit          []AuditEntry        `json:"audit" bson:"audit"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
}
