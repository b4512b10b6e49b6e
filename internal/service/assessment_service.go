package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/model"
	"divorcerisk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssessmentService handles assessment records, answer collection and the clinician dashboard
type AssessmentService struct {
	assessmentRepo repository.AssessmentRepo
	answerRepo     repository.AnswerRepo
	predictionRepo repository.PredictionRepo
	riskBoard      cache.RiskBoard
	logger         *zap.Logger
	now            func() time.Time
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	assessmentRepo repository.AssessmentRepo,
	answerRepo repository.AnswerRepo,
	predictionRepo repository.PredictionRepo,
	riskBoard cache.RiskBoard,
	logger *zap.Logger,
) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		answerRepo:     answerRepo,
		predictionRepo: predictionRepo,
		riskBoard:      riskBoard,
		logger:         logger,
		now:            time.Now,
	}
}

// Create opens a new assessment for the clinician
func (s *AssessmentService) Create(ctx context.Context, clinicianID string, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	label := strings.TrimSpace(req.CoupleLabel)
	if label == "" {
		return nil, fmt.Errorf("%w: coupleLabel is required", ErrInvalidAnswer)
	}
	now := s.now().UTC()
	a := &model.Assessment{
		ID:           uuid.New().String(),
		ClinicianID:  clinicianID,
		CoupleLabel:  label,
		PartnerAName: strings.TrimSpace(req.PartnerAName),
		PartnerBName: strings.TrimSpace(req.PartnerBName),
		Title:        strings.TrimSpace(req.Title),
		Status:       model.AssessmentAnswersCollected,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

// Get returns an assessment owned by the clinician
func (s *AssessmentService) Get(ctx context.Context, clinicianID, id string) (*model.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil || a.ClinicianID != clinicianID {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

// ValidateAnswers checks partner tags and the 0..4 value range
func ValidateAnswers(items []model.BulkAnswerItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidAnswer)
	}
	for i, it := range items {
		if !it.Partner.Valid() {
			return fmt.Errorf("%w: item %d: partner must be A or B", ErrInvalidAnswer, i)
		}
		if it.Value < 0 || it.Value > 4 {
			return fmt.Errorf("%w: item %d: value %d outside 0..4", ErrInvalidAnswer, i, it.Value)
		}
		if strings.TrimSpace(it.Text) == "" {
			return fmt.Errorf("%w: item %d: text is empty", ErrInvalidAnswer, i)
		}
	}
	return nil
}

// AddAnswers appends a validated batch and moves the assessment back to answers_collected
func (s *AssessmentService) AddAnswers(ctx context.Context, clinicianID, id string, items []model.BulkAnswerItem) (int, error) {
	if _, err := s.Get(ctx, clinicianID, id); err != nil {
		return 0, err
	}
	if err := ValidateAnswers(items); err != nil {
		return 0, err
	}

	offset, err := s.answerRepo.CountByAssessmentID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}

	now := s.now().UTC()
	answers := make([]*model.StoredAnswer, len(items))
	for i, it := range items {
		answers[i] = &model.StoredAnswer{
			ID:           uuid.New().String(),
			AssessmentID: id,
			QuestionID:   it.QuestionID,
			Partner:      it.Partner,
			Text:         strings.TrimSpace(it.Text),
			Value:        it.Value,
			Position:     int(offset) + i,
			CreatedAt:    now,
		}
	}
	if err := s.answerRepo.InsertMany(ctx, answers); err != nil {
		return 0, fmt.Errorf("save answers: %w", err)
	}
	if err := s.assessmentRepo.UpdateStatus(ctx, id, model.AssessmentAnswersCollected); err != nil {
		return 0, fmt.Errorf("update assessment status: %w", err)
	}
	s.logger.Info("answers added", zap.String("assessment", id), zap.Int("count", len(answers)))
	return len(answers), nil
}

// Answers lists an assessment's answers in submission order
func (s *AssessmentService) Answers(ctx context.Context, clinicianID, id string) ([]*model.StoredAnswer, error) {
	if _, err := s.Get(ctx, clinicianID, id); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.GetByAssessmentID(ctx, id)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []*model.StoredAnswer{}
	}
	return answers, nil
}

// Dashboard lists the clinician's assessments with their latest prediction,
// highest risk first and unscored assessments last.
func (s *AssessmentService) Dashboard(ctx context.Context, clinicianID string) ([]*model.DashboardRow, error) {
	assessments, err := s.assessmentRepo.GetByClinicianID(ctx, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	rows := make(map[string]*model.DashboardRow, len(assessments))
	for _, a := range assessments {
		row := &model.DashboardRow{Assessment: a}
		latest, err := s.predictionRepo.GetLatest(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load latest prediction: %w", err)
		}
		if latest != nil {
			p, c, at := latest.Probability, latest.PredictedClass, latest.CreatedAt
			row.Probability, row.PredictedClass, row.PredictedAt = &p, &c, &at
		}
		rows[a.ID] = row
	}

	out := make([]*model.DashboardRow, 0, len(assessments))
	placed := make(map[string]bool, len(assessments))
	if s.riskBoard != nil {
		ranked, err := s.riskBoard.GetTop(ctx, clinicianID, 0)
		if err != nil {
			s.logger.Warn("risk board read failed", zap.Error(err))
		}
		for _, e := range ranked {
			if row, ok := rows[e.AssessmentID]; ok && row.Probability != nil && !placed[e.AssessmentID] {
				out = append(out, row)
				placed[e.AssessmentID] = true
			}
		}
	}
	var scored []*model.DashboardRow
	for _, a := range assessments {
		if !placed[a.ID] && rows[a.ID].Probability != nil {
			scored = append(scored, rows[a.ID])
			placed[a.ID] = true
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Probability > *scored[j].Probability
	})
	out = append(out, scored...)
	for _, a := range assessments {
		if !placed[a.ID] {
			out = append(out, rows[a.ID])
		}
	}
	return out, nil
}
