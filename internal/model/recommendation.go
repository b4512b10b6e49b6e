package model

import "time"

// Band is the ordinal severity of a domain risk score
type Band string

const (
	BandGreen  Band = "Green"
	BandYellow Band = "Yellow"
	BandOrange Band = "Orange"
	BandRed    Band = "Red"
)

// DomainRiskScore is the averaged, polarity-normalized risk of one domain.
// Evidence is false when none of the domain's features were answered.
type DomainRiskScore struct {
	Domain   string  `json:"domain" bson:"domain"`
	Risk     float64 `json:"risk" bson:"risk"`
	Band     Band    `json:"band" bson:"band"`
	Evidence bool    `json:"evidence" bson:"evidence"`
	Covered  int     `json:"covered" bson:"covered"`
}

// RecommendationModule is the curated task list attached to a triggered domain
type RecommendationModule struct {
	Domain string   `json:"domain" bson:"domain"`
	Tasks  []string `json:"tasks" bson:"tasks"`
}

// ProgramSource says whether program text came from the generator or the local fallback
type ProgramSource string

const (
	ProgramPersonalized ProgramSource = "personalized"
	ProgramFallback     ProgramSource = "fallback"
)

// RecommendationProgram is the domain risks, selected modules and guidance text
type RecommendationProgram struct {
	DomainRisks []DomainRiskScore      `json:"domainRisks" bson:"domainRisks"`
	Modules     []RecommendationModule `json:"modules" bson:"modules"`
	Text        string                 `json:"text" bson:"text"`
	Source      ProgramSource          `json:"source" bson:"source"`
}

// RecommendationRecord is the single live program for an assessment
type RecommendationRecord struct {
	AssessmentID string                `json:"assessmentId" bson:"_id"`
	PredictionID string                `json:"predictionId" bson:"predictionId"`
	Program      RecommendationProgram `json:"program" bson:"program"`
	UpdatedAt    time.Time             `json:"updatedAt" bson:"updatedAt"`
}
