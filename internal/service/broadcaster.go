package service

// Event types published to clinicians watching an assessment
const (
	EventPredictionReady     = "prediction_ready"
	EventRecommendationReady = "recommendation_ready"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAssessment(assessmentID string, msgType string, payload interface{})
}
