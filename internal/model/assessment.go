package model

import "time"

// AssessmentStatus tracks pipeline progress for one assessment
type AssessmentStatus string

const (
	AssessmentAnswersCollected AssessmentStatus = "answers_collected"
	AssessmentPredicted        AssessmentStatus = "predicted"
	AssessmentRecommended      AssessmentStatus = "recommended"
)

// Assessment is one couple's questionnaire run owned by a clinician
type Assessment struct {
	ID           string           `json:"id" bson:"_id"`
	ClinicianID  string           `json:"clinicianId" bson:"clinicianId"`
	CoupleLabel  string           `json:"coupleLabel" bson:"coupleLabel"`
	PartnerAName string           `json:"partnerAName,omitempty" bson:"partnerAName,omitempty"`
	PartnerBName string           `json:"partnerBName,omitempty" bson:"partnerBName,omitempty"`
	Title        string           `json:"title,omitempty" bson:"title,omitempty"`
	Status       AssessmentStatus `json:"status" bson:"status"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// StoredAnswer is a persisted raw answer
type StoredAnswer struct {
	ID           string    `json:"id" bson:"_id"`
	AssessmentID string    `json:"assessmentId" bson:"assessmentId"`
	QuestionID   string    `json:"questionId,omitempty" bson:"questionId,omitempty"`
	Partner      Partner   `json:"partner" bson:"partner"`
	Text         string    `json:"text" bson:"text"`
	Value        int       `json:"value" bson:"value"`
	Position     int       `json:"position" bson:"position"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Raw strips storage metadata
func (a StoredAnswer) Raw() RawAnswer {
	return RawAnswer{Text: a.Text, Value: a.Value, Partner: a.Partner}
}

// CreateAssessmentRequest is the body for POST /v1/assessments
type CreateAssessmentRequest struct {
	CoupleLabel  string `json:"coupleLabel"`
	PartnerAName string `json:"partnerAName"`
	PartnerBName string `json:"partnerBName"`
	Title        string `json:"title"`
}

// BulkAnswerItem is one answer in a bulk upload
type BulkAnswerItem struct {
	QuestionID string  `json:"questionId,omitempty"`
	Partner    Partner `json:"partner"`
	Value      int     `json:"value"`
	Text       string  `json:"text"`
}

// BulkAnswersRequest is the body for POST /v1/assessments/{id}/answers/bulk
type BulkAnswersRequest struct {
	Items []BulkAnswerItem `json:"items"`
}

// DashboardRow summarizes an assessment's latest prediction for the clinician view
type DashboardRow struct {
	Assessment     *Assessment `json:"assessment"`
	Probability    *float64    `json:"probability"`
	PredictedClass *int        `json:"predictedClass"`
	PredictedAt    *time.Time  `json:"predictedAt,omitempty"`
}
