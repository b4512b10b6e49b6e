package service

import (
	"context"
	"fmt"
	"time"

	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"
	"divorcerisk/internal/repository"

	"go.uber.org/zap"
)

// RecommendationService turns the latest prediction into domain risks, modules and program text
type RecommendationService struct {
	assessmentRepo     repository.AssessmentRepo
	predictionRepo     repository.PredictionRepo
	recommendationRepo repository.RecommendationRepo
	catalog            *catalog.Catalog
	personalizer       Personalizer
	broadcaster        Broadcaster
	logger             *zap.Logger
	now                func() time.Time
}

// NewRecommendationService creates a new recommendation service. personalizer may be nil,
// in which case every program uses the local fallback text.
func NewRecommendationService(
	assessmentRepo repository.AssessmentRepo,
	predictionRepo repository.PredictionRepo,
	recommendationRepo repository.RecommendationRepo,
	cat *catalog.Catalog,
	personalizer Personalizer,
	logger *zap.Logger,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		assessmentRepo:     assessmentRepo,
		predictionRepo:     predictionRepo,
		recommendationRepo: recommendationRepo,
		catalog:            cat,
		personalizer:       personalizer,
		logger:             logger,
		now:                time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *RecommendationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Build derives a program from a combined vector. It always succeeds.
func (s *RecommendationService) Build(ctx context.Context, vec model.FeatureVector) model.RecommendationProgram {
	risks := ComputeDomainRisks(s.catalog, vec)
	modules := SelectModules(s.catalog, risks)
	return BuildProgram(ctx, s.personalizer, risks, modules, s.logger)
}

// Generate recomputes the program from the latest prediction and replaces the stored one
func (s *RecommendationService) Generate(ctx context.Context, clinicianID, assessmentID string) (*model.RecommendationRecord, error) {
	if _, err := s.ownedAssessment(ctx, clinicianID, assessmentID); err != nil {
		return nil, err
	}

	latest, err := s.predictionRepo.GetLatest(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load latest prediction: %w", err)
	}
	if latest == nil {
		return nil, ErrNoPrediction
	}

	vec := model.FeatureVectorFromNullable(s.catalog.FeatureIDs(), latest.Vector)
	program := s.Build(ctx, vec)

	rec := &model.RecommendationRecord{
		AssessmentID: assessmentID,
		PredictionID: latest.ID,
		Program:      program,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.recommendationRepo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save recommendation: %w", err)
	}
	if err := s.assessmentRepo.UpdateStatus(ctx, assessmentID, model.AssessmentRecommended); err != nil {
		return nil, fmt.Errorf("update assessment status: %w", err)
	}

	s.logger.Info("recommendation stored",
		zap.String("assessment", assessmentID),
		zap.Int("modules", len(program.Modules)),
		zap.String("source", string(program.Source)))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAssessment(assessmentID, EventRecommendationReady, rec)
	}
	return rec, nil
}

// Get returns the stored program, or nil when none was generated yet
func (s *RecommendationService) Get(ctx context.Context, clinicianID, assessmentID string) (*model.RecommendationRecord, error) {
	if _, err := s.ownedAssessment(ctx, clinicianID, assessmentID); err != nil {
		return nil, err
	}
	return s.recommendationRepo.Get(ctx, assessmentID)
}

func (s *RecommendationService) ownedAssessment(ctx context.Context, clinicianID, assessmentID string) (*model.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil || a.ClinicianID != clinicianID {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}
