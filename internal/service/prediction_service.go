package service

import (
	"context"
	"fmt"
	"time"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/model"
	"divorcerisk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PredictionService runs the pipeline on stored assessments and keeps the prediction history
type PredictionService struct {
	assessmentRepo repository.AssessmentRepo
	answerRepo     repository.AnswerRepo
	predictionRepo repository.PredictionRepo
	riskBoard      cache.RiskBoard
	pipeline       *Pipeline
	broadcaster    Broadcaster
	logger         *zap.Logger
	now            func() time.Time
}

// NewPredictionService creates a new prediction service
func NewPredictionService(
	assessmentRepo repository.AssessmentRepo,
	answerRepo repository.AnswerRepo,
	predictionRepo repository.PredictionRepo,
	riskBoard cache.RiskBoard,
	pipeline *Pipeline,
	logger *zap.Logger,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		assessmentRepo: assessmentRepo,
		answerRepo:     answerRepo,
		predictionRepo: predictionRepo,
		riskBoard:      riskBoard,
		pipeline:       pipeline,
		logger:         logger,
		now:            time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *PredictionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Predict runs the pipeline on an assessment's stored answers and appends a new prediction record
func (s *PredictionService) Predict(ctx context.Context, clinicianID, assessmentID string) (*model.PredictionRecord, error) {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil || a.ClinicianID != clinicianID {
		return nil, ErrAssessmentNotFound
	}

	stored, err := s.answerRepo.GetByAssessmentID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrNoAnswers
	}

	raw := make([]model.RawAnswer, len(stored))
	for i, sa := range stored {
		raw[i] = sa.Raw()
	}
	partnerA, partnerB := SplitByPartner(raw)

	result, err := s.pipeline.Run(ctx, partnerA, partnerB)
	if err != nil {
		return nil, err
	}

	record := &model.PredictionRecord{
		ID:             uuid.New().String(),
		AssessmentID:   assessmentID,
		Probability:    result.Probability,
		PredictedClass: result.PredictedClass,
		Threshold:      s.pipeline.Threshold(),
		Vector:         result.Vector.Nullable(),
		Audit:          result.Audit,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.predictionRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	if err := s.assessmentRepo.UpdateStatus(ctx, assessmentID, model.AssessmentPredicted); err != nil {
		return nil, fmt.Errorf("update assessment status: %w", err)
	}

	if s.riskBoard != nil {
		if err := s.riskBoard.UpdateScore(ctx, a.ClinicianID, assessmentID, record.Probability); err != nil {
			s.logger.Warn("risk board update failed", zap.String("assessment", assessmentID), zap.Error(err))
		}
	}

	s.logger.Info("prediction stored",
		zap.String("assessment", assessmentID),
		zap.Float64("probability", record.Probability),
		zap.Int("class", record.PredictedClass),
		zap.Int("features", result.Vector.Present()))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAssessment(assessmentID, EventPredictionReady, map[string]interface{}{
			"predictionId":   record.ID,
			"probability":    record.Probability,
			"predictedClass": record.PredictedClass,
		})
	}

	return record, nil
}

// History returns the assessment's predictions, newest first
func (s *PredictionService) History(ctx context.Context, clinicianID, assessmentID string, limit int) ([]*model.PredictionRecord, error) {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil || a.ClinicianID != clinicianID {
		return nil, ErrAssessmentNotFound
	}
	records, err := s.predictionRepo.GetHistory(ctx, assessmentID, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*model.PredictionRecord{}
	}
	return records, nil
}
