package service

import (
	"context"

	"divorcerisk/internal/model"
)

// Pipeline scores two partners' raw answers: normalize each partner, combine, classify
type Pipeline struct {
	normalizer *Normalizer
	classifier Classifier
	threshold  float64
}

// NewPipeline creates a new pipeline
func NewPipeline(normalizer *Normalizer, classifier Classifier, threshold float64) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		classifier: classifier,
		threshold:  threshold,
	}
}

// Threshold returns the decision threshold in use
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Run scores two partners' answers. Partners are routed one after the other,
// one batch each; router failures only reduce the evidence in the vector.
func (p *Pipeline) Run(ctx context.Context, partnerA, partnerB []model.RawAnswer) (*model.PredictionResult, error) {
	vecA, auditA := p.normalizer.Normalize(ctx, model.PartnerA, partnerA)
	vecB, auditB := p.normalizer.Normalize(ctx, model.PartnerB, partnerB)

	combined := CombineVectors(vecA, vecB)
	prob, class, err := Classify(p.classifier, combined, p.threshold)
	if err != nil {
		return nil, err
	}

	audit := make([]model.AuditEntry, 0, len(auditA)+len(auditB))
	audit = append(audit, auditA...)
	audit = append(audit, auditB...)

	return &model.PredictionResult{
		Probability:    prob,
		PredictedClass: class,
		Vector:         combined,
		Audit:          audit,
	}, nil
}

// SplitByPartner separates a mixed answer list, keeping order within each partner
func SplitByPartner(answers []model.RawAnswer) (partnerA, partnerB []model.RawAnswer) {
	for _, a := range answers {
		switch a.Partner {
		case model.PartnerA:
			partnerA = append(partnerA, a)
		case model.PartnerB:
			partnerB = append(partnerB, a)
		}
	}
	return partnerA, partnerB
}
